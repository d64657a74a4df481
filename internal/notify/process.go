package notify

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"cpmanager/pkg/types"
)

const maxOutput = 4 << 10

// ProcessNotifier annotates a scheduling block by running
// "<tool> annotate <sbid> --comment <comment> [--issue <id>]".
type ProcessNotifier struct {
	cfg Config
	log zerolog.Logger

	// command builds the child process; replaced in tests.
	command func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// NewProcessNotifier returns a process backend for cfg.
func NewProcessNotifier(cfg Config, log zerolog.Logger) *ProcessNotifier {
	return &ProcessNotifier{cfg: cfg.withDefaults(), log: log, command: exec.CommandContext}
}

func (p *ProcessNotifier) Name() string { return BackendProcess }

// Args returns the argv for ev, tool name first.
func (p *ProcessNotifier) Args(ev types.NotificationEvent) []string {
	argv := []string{p.cfg.Tool, "annotate", strconv.FormatInt(ev.SBID, 10), "--comment", p.cfg.Comment}
	if id := p.issueID(); id != "" {
		argv = append(argv, "--issue", id)
	}
	return argv
}

func (p *ProcessNotifier) issueID() string {
	if id := strings.TrimSpace(p.cfg.IssueID); id != "" {
		return id
	}
	if p.cfg.IssueLookup != nil {
		return strings.TrimSpace(p.cfg.IssueLookup())
	}
	return ""
}

// Notify runs the tool and waits for it. A non-zero exit status, a launch
// failure and ctx ending while waiting are all reported as *NotificationError.
func (p *ProcessNotifier) Notify(ctx context.Context, ev types.NotificationEvent) error {
	env := p.cfg.Env
	if env == nil {
		env = os.Environ()
	}
	if !hasAnyEnv(env, p.cfg.CredentialEnv) {
		// The tool may still find credentials in its own store.
		p.log.Error().
			Strs("vars", p.cfg.CredentialEnv).
			Int64("sbid", ev.SBID).
			Msg("no annotation credentials in environment")
	}

	argv := p.Args(ev)
	cmd := p.command(ctx, argv[0], argv[1:]...)
	cmd.Env = env
	out := &boundedBuffer{limit: maxOutput}
	cmd.Stdout = out
	cmd.Stderr = out

	p.log.Debug().Strs("argv", argv).Msg("running annotation tool")
	err := cmd.Run()
	if err == nil {
		p.log.Info().Int64("sbid", ev.SBID).Str("state", ev.State.String()).Msg("scheduling block annotated")
		return nil
	}

	nerr := &NotificationError{Backend: BackendProcess, SBID: ev.SBID, ExitCode: -1, Output: out.String()}
	var exitErr *exec.ExitError
	switch {
	case ctx.Err() != nil:
		nerr.Cause = ctx.Err()
	case errors.As(err, &exitErr) && exitErr.ExitCode() >= 0:
		nerr.ExitCode = exitErr.ExitCode()
	default:
		nerr.Cause = err
	}
	p.log.Error().
		Err(nerr).
		Str("output", nerr.Output).
		Msg("annotation tool failed")
	return nerr
}

func hasAnyEnv(env, names []string) bool {
	for _, kv := range env {
		for _, n := range names {
			if strings.HasPrefix(kv, n+"=") {
				return true
			}
		}
	}
	return false
}

// boundedBuffer keeps the first limit bytes written and discards the rest.
type boundedBuffer struct {
	mu    sync.Mutex
	buf   []byte
	limit int
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if room := b.limit - len(b.buf); room > 0 {
		if len(p) > room {
			b.buf = append(b.buf, p[:room]...)
		} else {
			b.buf = append(b.buf, p...)
		}
	}
	return len(p), nil
}

func (b *boundedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.TrimSpace(string(b.buf))
}
