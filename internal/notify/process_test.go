package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpmanager/pkg/types"
)

// TestHelperProcess stands in for the annotation tool when re-executed by
// helperCommand.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	if d, err := time.ParseDuration(os.Getenv("HELPER_SLEEP")); err == nil {
		time.Sleep(d)
	}
	fmt.Fprintln(os.Stderr, "annotate: tool output")
	code, _ := strconv.Atoi(os.Getenv("HELPER_EXIT"))
	os.Exit(code)
}

func helperCommand(ctx context.Context, name string, args ...string) *exec.Cmd {
	cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
	return exec.CommandContext(ctx, os.Args[0], cs...)
}

func newHelperNotifier(t *testing.T, env ...string) (*ProcessNotifier, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	cfg := Config{Env: append([]string{"GO_WANT_HELPER_PROCESS=1", "JIRA_USER=ops"}, env...)}
	n := NewProcessNotifier(cfg, zerolog.New(&logs))
	n.command = helperCommand
	return n, &logs
}

var processing = types.NotificationEvent{SBID: 2056, State: types.ObsProcessing, UpdateTime: "2016-06-01 12:00:00"}

func TestProcessNotifierExitZero(t *testing.T) {
	n, _ := newHelperNotifier(t, "HELPER_EXIT=0")
	require.NoError(t, n.Notify(context.Background(), processing))
}

func TestProcessNotifierNonZeroExit(t *testing.T) {
	n, _ := newHelperNotifier(t, "HELPER_EXIT=2")
	err := n.Notify(context.Background(), processing)
	require.Error(t, err)
	assert.True(t, IsNotificationError(err))

	var ne *NotificationError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, 2, ne.ExitCode)
	assert.Equal(t, int64(2056), ne.SBID)
	assert.Nil(t, ne.Cause)
	assert.Contains(t, err.Error(), "2")
	assert.Contains(t, ne.Output, "tool output")
}

func TestProcessNotifierInterrupted(t *testing.T) {
	n, _ := newHelperNotifier(t, "HELPER_SLEEP=10s")
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := n.Notify(ctx, processing)
	require.Error(t, err)
	var ne *NotificationError
	require.True(t, errors.As(err, &ne))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, -1, ne.ExitCode)
}

func TestProcessNotifierLaunchFailure(t *testing.T) {
	n := NewProcessNotifier(Config{Tool: "/nonexistent/schedblock", Env: []string{"JIRA_PASSWORD=x"}}, zerolog.Nop())
	err := n.Notify(context.Background(), processing)
	require.Error(t, err)
	var ne *NotificationError
	require.True(t, errors.As(err, &ne))
	assert.NotNil(t, errors.Unwrap(err))
	assert.Equal(t, -1, ne.ExitCode)
}

func TestProcessNotifierMissingCredentialsIsNotFatal(t *testing.T) {
	var logs bytes.Buffer
	n := NewProcessNotifier(Config{Env: []string{"GO_WANT_HELPER_PROCESS=1", "HELPER_EXIT=0"}}, zerolog.New(&logs))
	n.command = helperCommand
	require.NoError(t, n.Notify(context.Background(), processing))
	assert.Contains(t, logs.String(), "no annotation credentials")
}

func TestProcessNotifierArgs(t *testing.T) {
	base := []string{"schedblock", "annotate", "2056", "--comment", "Ready for data processing"}

	cases := []struct {
		name string
		cfg  Config
		want []string
	}{
		{"no issue anywhere", Config{}, base},
		{"local override", Config{IssueID: "ABC-1"}, append(append([]string{}, base...), "--issue", "ABC-1")},
		{"secondary source", Config{IssueLookup: func() string { return "XYZ-9" }}, append(append([]string{}, base...), "--issue", "XYZ-9")},
		{"override wins", Config{IssueID: "ABC-1", IssueLookup: func() string { return "XYZ-9" }}, append(append([]string{}, base...), "--issue", "ABC-1")},
		{"blank lookup omitted", Config{IssueLookup: func() string { return " " }}, base},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := NewProcessNotifier(tc.cfg, zerolog.Nop())
			assert.Equal(t, tc.want, n.Args(processing))
		})
	}
}

func TestBoundedBuffer(t *testing.T) {
	b := &boundedBuffer{limit: 4}
	n, err := b.Write([]byte("abcdef"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	_, _ = b.Write([]byte("gh"))
	assert.Equal(t, "abcd", b.String())
}
