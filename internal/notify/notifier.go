package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"cpmanager/pkg/types"
)

// Backend names accepted by New.
const (
	BackendProcess = "process"
	BackendRelay   = "relay"
	BackendNone    = "none"
)

const (
	DefaultTool    = "schedblock"
	DefaultComment = "Ready for data processing"
	// DefaultTopic is the scheduling block state topic the monitor follows.
	DefaultTopic = "sbstatechange"
	// DefaultRelayTopic is the topic a relay notifier publishes on.
	DefaultRelayTopic = "sbprocessing"
)

// DefaultCredentialEnv lists the variables the annotation tool reads its
// credentials from.
var DefaultCredentialEnv = []string{"JIRA_USER", "JIRA_PASSWORD"}

// Notifier delivers one scheduling block state change. Notify may block for
// the duration of the underlying I/O.
type Notifier interface {
	Notify(ctx context.Context, ev types.NotificationEvent) error
	Name() string
}

// Config selects the backend and carries its parameters. It is resolved once
// at startup.
type Config struct {
	Backend string

	// process backend
	Tool    string
	Comment string
	IssueID string
	// IssueLookup is consulted when IssueID is empty.
	IssueLookup   func() string
	CredentialEnv []string
	// Env is the child environment; nil inherits os.Environ().
	Env []string

	// relay backend
	TopicManager string
	Topic        string
}

// Deps carries collaborators New may need.
type Deps struct {
	Resolver TopicResolver
	Logger   *zerolog.Logger
}

func (c Config) withDefaults() Config {
	if c.Backend == "" {
		c.Backend = BackendProcess
	}
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Tool == "" {
		c.Tool = DefaultTool
	}
	if c.Comment == "" {
		c.Comment = DefaultComment
	}
	if c.CredentialEnv == nil {
		c.CredentialEnv = DefaultCredentialEnv
	}
	if c.Topic == "" {
		c.Topic = DefaultRelayTopic
	}
	return c
}

// New builds the notifier named by cfg.Backend.
func New(ctx context.Context, cfg Config, deps Deps) (Notifier, error) {
	cfg = cfg.withDefaults()
	log := loggerOrNop(deps.Logger)
	switch cfg.Backend {
	case BackendProcess:
		return NewProcessNotifier(cfg, log), nil
	case BackendRelay:
		if deps.Resolver == nil {
			return nil, fmt.Errorf("relay backend: no topic resolver")
		}
		mgr, err := deps.Resolver.Resolve(cfg.TopicManager)
		if err != nil {
			return nil, fmt.Errorf("relay backend: %w", err)
		}
		return NewRelayNotifier(ctx, cfg, mgr, log)
	case BackendNone:
		return nopNotifier{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, types.NotificationEvent) error { return nil }
func (nopNotifier) Name() string                                          { return BackendNone }

func loggerOrNop(l *zerolog.Logger) zerolog.Logger {
	if l == nil {
		return zerolog.Nop()
	}
	return *l
}
