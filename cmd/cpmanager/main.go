package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"cpmanager/internal/config"
	"cpmanager/internal/host"
	"cpmanager/internal/manager"
)

type flags struct {
	configPath  string
	addr        string
	logLevel    string
	logFormat   string
	corsOrigins string
}

func main() {
	root := newRootCmd(os.Getenv)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newRootCmd(getenv func(string) string) *cobra.Command {
	f := &flags{configPath: getenv("CPMANAGER_CONFIG")}
	root := &cobra.Command{
		Use:           "cpmanager",
		Short:         "Central processor lifecycle manager",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f, getenv)
			if err != nil {
				return err
			}
			log := newLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
			h, err := host.New(cfg, log)
			if err != nil {
				return err
			}
			return h.Run(cmd.Context())
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", f.configPath, "Config file (.yaml, .json or .toml); defaults CPMANAGER_CONFIG")
	pf.StringVar(&f.addr, "addr", "", "HTTP listen address, e.g. :8080")
	pf.StringVar(&f.logLevel, "log-level", "", "Log level: trace|debug|info|warn|error")
	pf.StringVar(&f.logFormat, "log-format", "", "Log format: json|console")
	pf.StringVar(&f.corsOrigins, "cors-origins", "", "Comma-separated CORS origins; enables CORS when set")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), manager.Version)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f, getenv)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cfg)
		},
	})
	return root
}

// loadConfig layers defaults, the config file, CPMANAGER_* variables and
// explicitly set flags, then validates the result.
func loadConfig(cmd *cobra.Command, f *flags, getenv func(string) string) (config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		return cfg, err
	}
	changed := func(name string) bool {
		fl := cmd.Flags().Lookup(name)
		return fl != nil && fl.Changed
	}
	if changed("addr") {
		cfg.Addr = f.addr
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if changed("log-format") {
		cfg.LogFormat = f.logFormat
	}
	if changed("cors-origins") {
		if origins := splitCSV(f.corsOrigins); len(origins) > 0 {
			cfg.CORS.Enabled = true
			cfg.CORS.AllowedOrigins = origins
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newLogger(level, format string, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("component", "cpmanager").Logger()
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
