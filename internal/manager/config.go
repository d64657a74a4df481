package manager

import (
	"time"

	"github.com/rs/zerolog"
)

// Defaults applied when corresponding config fields are unset.
const (
	DefaultServiceName = "CentralProcessorService"
	DefaultAdminName   = "CentralProcessorAdmin"

	defaultPollInterval  = 100 * time.Millisecond
	defaultRetryInterval = 5 * time.Second
)

// Version is the component version reported by Controller.Version.
// Overridden at build time with -ldflags "-X cpmanager/internal/manager.Version=...".
var Version = "dev"

// ControllerConfig encapsulates all tunables for Controller construction.
type ControllerConfig struct {
	// Identity is the name the hosted service is registered under.
	Identity string
	Backend  RegistrationBackend
	Factory  ServiceFactory
	// Registrar overrides the registrar built from Backend/PollInterval/MaxPolls.
	Registrar    *Registrar
	PollInterval time.Duration
	MaxPolls     int
	Publisher    EventPublisher
	Logger       *zerolog.Logger
	Version      string
}

// RegistrarConfig tunes the confirmation loop. Zero values mean defaults:
// 100ms between polls, no cap.
type RegistrarConfig struct {
	PollInterval time.Duration
	MaxPolls     int
	Logger       *zerolog.Logger
}

// ActivatorConfig tunes activation retries. Zero values mean defaults:
// 5s between attempts, no cap.
type ActivatorConfig struct {
	RetryInterval time.Duration
	MaxAttempts   int
	Logger        *zerolog.Logger
}

func loggerOrNop(l *zerolog.Logger) zerolog.Logger {
	if l == nil {
		return zerolog.Nop()
	}
	return *l
}
