package cpctl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"cpmanager/pkg/types"
)

type Config struct {
	Addr    string
	LogLvl  string
	Timeout time.Duration
	JSON    bool
}

// DefaultConfig reads defaults from CPCTL_* environment variables.
func DefaultConfig() *Config {
	return &Config{
		Addr:    envStr("CPCTL_ADDR", "127.0.0.1:8080"),
		LogLvl:  envStr("CPCTL_LOG_LEVEL", "info"),
		Timeout: envDuration("CPCTL_TIMEOUT", 30*time.Second),
		JSON:    envBool("CPCTL_JSON", false),
	}
}

// ParseParams turns key=value arguments into startup parameters.
func ParseParams(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("startup parameter %q: want key=value", a)
		}
		out[k] = v
	}
	return out, nil
}

// MainWithArgs is a testable variant of Main that accepts args explicitly.
// It returns an exit code (0 for success, non-zero on error).
func MainWithArgs(args []string) int {
	return mainWith(context.Background(), args, os.Stdout, os.Stderr)
}

func mainWith(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		root := buildRootCmdWith(DefaultConfig())
		root.SetOut(stderr)
		_ = root.Usage()
		return 2
	}
	root := buildRootCmdWith(DefaultConfig())
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	return 0
}

// Main returns an exit code for use by cmd/cpctl.
func Main() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return mainWith(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func emit(cmd *cobra.Command, cfg *Config, key string, v any) error {
	w := cmd.OutOrStdout()
	if cfg.JSON {
		enc := json.NewEncoder(w)
		return enc.Encode(map[string]any{key: v})
	}
	switch x := v.(type) {
	case []string:
		for _, s := range x {
			fmt.Fprintln(w, s)
		}
	case []types.TestResult:
		if len(x) == 0 {
			fmt.Fprintln(w, "no tests")
		}
		for _, r := range x {
			status := "FAIL"
			if r.Passed {
				status = "PASS"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", status, r.Name, r.Message)
		}
	default:
		fmt.Fprintln(w, v)
	}
	return nil
}

// explain adds a hint for replies the daemon uses for rejected transitions.
func explain(op string, err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == 409 {
		return fmt.Errorf("%s rejected: %w", op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func parseSBID(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("sbid %q: want a non-negative integer", s)
	}
	return n, nil
}
