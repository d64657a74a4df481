package cpctl

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cpmanager/pkg/types"
)

// buildRootCmdWith constructs the command tree wired to the fn* actions.
func buildRootCmdWith(cfg *Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "cpctl",
		Short:         "Drive the central processor manager admin API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags -> Config
	root.PersistentFlags().StringVar(&cfg.Addr, "addr", cfg.Addr, "Daemon address (defaults CPCTL_ADDR or 127.0.0.1:8080)")
	root.PersistentFlags().StringVar(&cfg.LogLvl, "log-level", cfg.LogLvl, "Log level: debug|info|warn|error (defaults CPCTL_LOG_LEVEL or info)")
	root.PersistentFlags().DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Per-request timeout; activate may block until the service is visible")
	root.PersistentFlags().BoolVar(&cfg.JSON, "json", cfg.JSON, "Print results as JSON")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		SetLogLevel(cfg.LogLvl)
	}

	startup := &cobra.Command{Use: "startup [key=value ...]", Short: "Create the hosted service (LOADED -> STANDBY)", Example: "  cpctl startup mode=test", RunE: func(cmd *cobra.Command, args []string) error {
		params, err := ParseParams(args)
		if err != nil {
			return err
		}
		debug("startup params: %s", strings.Join(sortedKeys(params), ","))
		if err := fnNewAdmin(cfg).Startup(cmd.Context(), params); err != nil {
			return explain("startup", err)
		}
		info("startup: done")
		return nil
	}}
	shutdown := &cobra.Command{Use: "shutdown", Short: "Discard the hosted service (STANDBY -> LOADED)", Args: cobra.NoArgs, RunE: func(cmd *cobra.Command, args []string) error {
		if err := fnNewAdmin(cfg).Shutdown(cmd.Context()); err != nil {
			return explain("shutdown", err)
		}
		info("shutdown: done")
		return nil
	}}
	activate := &cobra.Command{Use: "activate", Short: "Register the hosted service (STANDBY -> ONLINE)", Args: cobra.NoArgs, RunE: func(cmd *cobra.Command, args []string) error {
		if err := fnNewAdmin(cfg).Activate(cmd.Context()); err != nil {
			return explain("activate", err)
		}
		info("activate: done")
		return nil
	}}
	deactivate := &cobra.Command{Use: "deactivate", Short: "Withdraw the hosted service (ONLINE -> STANDBY)", Args: cobra.NoArgs, RunE: func(cmd *cobra.Command, args []string) error {
		if err := fnNewAdmin(cfg).Deactivate(cmd.Context()); err != nil {
			return explain("deactivate", err)
		}
		info("deactivate: done")
		return nil
	}}
	state := &cobra.Command{Use: "state", Short: "Print the component state", Args: cobra.NoArgs, RunE: func(cmd *cobra.Command, args []string) error {
		s, err := fnNewAdmin(cfg).State(cmd.Context())
		if err != nil {
			return explain("state", err)
		}
		return emit(cmd, cfg, "state", s.String())
	}}
	selftest := &cobra.Command{Use: "selftest", Short: "Run diagnostics (requires STANDBY)", Args: cobra.NoArgs, RunE: func(cmd *cobra.Command, args []string) error {
		res, err := fnNewAdmin(cfg).SelfTest(cmd.Context())
		if err != nil {
			return explain("selftest", err)
		}
		if res == nil {
			res = []types.TestResult{}
		}
		return emit(cmd, cfg, "results", res)
	}}
	version := &cobra.Command{Use: "version", Short: "Print the daemon version", Args: cobra.NoArgs, RunE: func(cmd *cobra.Command, args []string) error {
		v, err := fnNewAdmin(cfg).Version(cmd.Context())
		if err != nil {
			return explain("version", err)
		}
		return emit(cmd, cfg, "version", v)
	}}
	objects := &cobra.Command{Use: "objects", Short: "List identities visible on the service adapter", Args: cobra.NoArgs, RunE: func(cmd *cobra.Command, args []string) error {
		objs, err := fnNewAdmin(cfg).Objects(cmd.Context())
		if err != nil {
			return explain("objects", err)
		}
		if objs == nil {
			objs = []string{}
		}
		return emit(cmd, cfg, "objects", objs)
	}}

	var updateTime string
	sbstate := &cobra.Command{Use: "sbstate <sbid> <state>", Short: "Inject a scheduling block state change", Example: "  cpctl sbstate 2056 PROCESSING", Args: cobra.ExactArgs(2), RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseSBID(args[0])
		if err != nil {
			return err
		}
		st, err := types.ParseObsState(args[1])
		if err != nil {
			return err
		}
		req := types.SBStateRequest{SBID: id, State: st.String(), UpdateTime: updateTime}
		if err := fnNewAdmin(cfg).SBState(cmd.Context(), req); err != nil {
			return explain("sbstate", err)
		}
		info("sbstate: sbid %d %s accepted", id, st)
		return nil
	}}
	sbstate.Flags().StringVar(&updateTime, "update-time", "", "Update time to report (server time when empty)")

	var waitFor time.Duration
	wait := &cobra.Command{Use: "wait [ready|live]", Short: "Block until the daemon reports ready (or live)", Args: cobra.MaximumNArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		probe := "/readyz"
		if len(args) == 1 {
			switch args[0] {
			case "ready":
			case "live":
				probe = "/healthz"
			default:
				return fmt.Errorf("unknown wait target: %s", args[0])
			}
		}
		url := NewClient(cfg.Addr, cfg.Timeout).Base() + probe
		if err := fnWaitHTTP(url, http.StatusOK, waitFor); err != nil {
			return err
		}
		info("[wait] %s ok", probe)
		return nil
	}}
	wait.Flags().DurationVar(&waitFor, "for", 60*time.Second, "How long to wait")

	root.AddCommand(startup, shutdown, activate, deactivate, state, selftest, version, objects, sbstate, wait)

	// completion command
	completionCmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	completionCmd.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(os.Stdout) }})
	completionCmd.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(os.Stdout) }})
	completionCmd.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(os.Stdout, true) }})
	completionCmd.AddCommand(&cobra.Command{Use: "powershell", Short: "PowerShell completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenPowerShellCompletionWithDesc(os.Stdout) }})
	root.AddCommand(completionCmd)

	return root
}
