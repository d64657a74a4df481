package config

import (
	"fmt"
	"strconv"
	"strings"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CPMANAGER_"

type envBinding struct {
	key string
	set func(c *Config, v string) error
}

func str(dst func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error { *dst(c) = v; return nil }
}

func list(dst func(*Config) *[]string) func(*Config, string) error {
	return func(c *Config, v string) error {
		var out []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		*dst(c) = out
		return nil
	}
}

func boolean(dst func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*dst(c) = b
		return nil
	}
}

func integer(dst func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst(c) = n
		return nil
	}
}

func duration(dst func(*Config) *Duration) func(*Config, string) error {
	return func(c *Config, v string) error { return dst(c).UnmarshalText([]byte(v)) }
}

var envBindings = []envBinding{
	{"ADDR", str(func(c *Config) *string { return &c.Addr })},
	{"LOG_LEVEL", str(func(c *Config) *string { return &c.LogLevel })},
	{"LOG_FORMAT", str(func(c *Config) *string { return &c.LogFormat })},
	{"SERVICE_NAME", str(func(c *Config) *string { return &c.Service.Name })},
	{"SERVICE_ADAPTER_NAME", str(func(c *Config) *string { return &c.Service.AdapterName })},
	{"SERVICE_ADMIN_NAME", str(func(c *Config) *string { return &c.Service.AdminName })},
	{"SERVICE_ADMIN_ADAPTER_NAME", str(func(c *Config) *string { return &c.Service.AdminAdapterName })},
	{"SERVICE_LOCATOR", str(func(c *Config) *string { return &c.Service.Locator })},
	{"SERVICE_PROPAGATION_DELAY", duration(func(c *Config) *Duration { return &c.Service.PropagationDelay })},
	{"MONITORING_ENABLED", boolean(func(c *Config) *bool { return &c.Monitoring.Enabled })},
	{"MONITORING_SERVICE_NAME", str(func(c *Config) *string { return &c.Monitoring.ServiceName })},
	{"MONITORING_ADAPTER_NAME", str(func(c *Config) *string { return &c.Monitoring.AdapterName })},
	{"SBSTATEMONITOR_ENABLED", boolean(func(c *Config) *bool { return &c.SBStateMonitor.Enabled })},
	{"SBSTATEMONITOR_TOPIC_MANAGER", str(func(c *Config) *string { return &c.SBStateMonitor.TopicManager })},
	{"SBSTATEMONITOR_TOPIC", str(func(c *Config) *string { return &c.SBStateMonitor.Topic })},
	{"SBSTATEMONITOR_STATES", list(func(c *Config) *[]string { return &c.SBStateMonitor.States })},
	{"NOTIFICATION_BACKEND", str(func(c *Config) *string { return &c.Notification.Backend })},
	{"NOTIFICATION_TOOL", str(func(c *Config) *string { return &c.Notification.Tool })},
	{"NOTIFICATION_COMMENT", str(func(c *Config) *string { return &c.Notification.Comment })},
	{"NOTIFICATION_ISSUE_ID", str(func(c *Config) *string { return &c.Notification.IssueID })},
	{"NOTIFICATION_CREDENTIAL_ENV", list(func(c *Config) *[]string { return &c.Notification.CredentialEnv })},
	{"NOTIFICATION_TOPIC_MANAGER", str(func(c *Config) *string { return &c.Notification.TopicManager })},
	{"NOTIFICATION_TOPIC", str(func(c *Config) *string { return &c.Notification.Topic })},
	{"ACTIVATION_RETRY_INTERVAL", duration(func(c *Config) *Duration { return &c.Activation.RetryInterval })},
	{"ACTIVATION_MAX_ATTEMPTS", integer(func(c *Config) *int { return &c.Activation.MaxAttempts })},
	{"REGISTRATION_POLL_INTERVAL", duration(func(c *Config) *Duration { return &c.Registration.PollInterval })},
	{"REGISTRATION_MAX_POLLS", integer(func(c *Config) *int { return &c.Registration.MaxPolls })},
	{"CORS_ENABLED", boolean(func(c *Config) *bool { return &c.CORS.Enabled })},
	{"CORS_ALLOWED_ORIGINS", list(func(c *Config) *[]string { return &c.CORS.AllowedOrigins })},
}

// ApplyEnv overrides fields from CPMANAGER_* variables looked up with getenv.
// Empty values are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	for _, b := range envBindings {
		v := strings.TrimSpace(getenv(EnvPrefix + b.key))
		if v == "" {
			continue
		}
		if err := b.set(c, v); err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, b.key, err)
		}
	}
	return nil
}
