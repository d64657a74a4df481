package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"cpmanager/internal/common/fsutil"
	"cpmanager/internal/notify"
	"cpmanager/pkg/types"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and cross-field rules.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.MonitorStates(); err != nil {
		return fmt.Errorf("invalid config: sbstatemonitor.states: %w", err)
	}
	if c.SBStateMonitor.Enabled && c.Notification.Backend == notify.BackendRelay &&
		strings.TrimSpace(c.Notification.Topic) == strings.TrimSpace(c.SBStateMonitor.Topic) {
		return fmt.Errorf("invalid config: %w (%q)", notify.ErrTopicLoop, c.Notification.Topic)
	}
	return nil
}

// MonitorStates parses the trigger states of the state monitor.
func (c Config) MonitorStates() ([]types.ObsState, error) {
	out := make([]types.ObsState, 0, len(c.SBStateMonitor.States))
	for _, s := range c.SBStateMonitor.States {
		st, err := types.ParseObsState(s)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// NotifyConfig resolves the notification backend settings. env is the child
// environment for the process backend; nil inherits the daemon's.
func (c Config) NotifyConfig(env []string) notify.Config {
	n := c.Notification
	return notify.Config{
		Backend:       n.Backend,
		Tool:          fsutil.ToolPath(n.Tool),
		Comment:       n.Comment,
		IssueID:       n.IssueID,
		CredentialEnv: append([]string(nil), n.CredentialEnv...),
		Env:           env,
		TopicManager:  n.TopicManager,
		Topic:         n.Topic,
	}
}
