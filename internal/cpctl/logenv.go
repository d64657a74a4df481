package cpctl

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var logger = newLogger(os.Stderr)

func newLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger().Level(zerolog.InfoLevel)
}

func init() {
	// default from env if present
	SetLogLevel(envStr("CPCTL_LOG_LEVEL", "info"))
}

// SetLogLevel accepts debug|info|warn|error; anything else means info.
func SetLogLevel(level string) {
	switch strings.ToLower(level) {
	case "debug":
		logger = logger.Level(zerolog.DebugLevel)
	case "warn", "warning":
		logger = logger.Level(zerolog.WarnLevel)
	case "error", "err":
		logger = logger.Level(zerolog.ErrorLevel)
	default:
		logger = logger.Level(zerolog.InfoLevel)
	}
}

func debug(format string, a ...any) { logger.Debug().Msgf(format, a...) }
func info(format string, a ...any)  { logger.Info().Msgf(format, a...) }
func warn(format string, a ...any)  { logger.Warn().Msgf(format, a...) }

// Env helpers
func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	s := strings.ToLower(v)
	return s == "1" || s == "true" || s == "yes"
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		warn("ignoring %s=%q: not a duration", key, v)
	}
	return def
}
