// Package config loads the daemon configuration from a file, the
// environment and defaults.
package config

import (
	"fmt"
	"time"

	"cpmanager/internal/manager"
	"cpmanager/internal/notify"
	"cpmanager/internal/relay"
)

// Config holds runtime parameters for the daemon.
type Config struct {
	Addr      string `json:"addr" yaml:"addr" toml:"addr" validate:"required"`
	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level" validate:"omitempty,oneof=trace debug info warn error"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format" validate:"omitempty,oneof=json console"`

	Service        ServiceConfig        `json:"service" yaml:"service" toml:"service"`
	Monitoring     MonitoringConfig     `json:"monitoring" yaml:"monitoring" toml:"monitoring"`
	SBStateMonitor SBStateMonitorConfig `json:"sbstatemonitor" yaml:"sbstatemonitor" toml:"sbstatemonitor"`
	Notification   NotificationConfig   `json:"notification" yaml:"notification" toml:"notification"`
	Activation     ActivationConfig     `json:"activation" yaml:"activation" toml:"activation"`
	Registration   RegistrationConfig   `json:"registration" yaml:"registration" toml:"registration"`
	CORS           CORSConfig           `json:"cors" yaml:"cors" toml:"cors"`
}

// ServiceConfig names the hosted service, the admin object and the adapters
// they are registered on.
type ServiceConfig struct {
	Name             string `json:"name" yaml:"name" toml:"name" validate:"required"`
	AdapterName      string `json:"adapter_name" yaml:"adapter_name" toml:"adapter_name" validate:"required"`
	AdminName        string `json:"admin_name" yaml:"admin_name" toml:"admin_name" validate:"required,nefield=Name"`
	AdminAdapterName string `json:"admin_adapter_name" yaml:"admin_adapter_name" toml:"admin_adapter_name"`
	// Locator is a host:port the adapter checks before activating.
	Locator          string   `json:"locator" yaml:"locator" toml:"locator" validate:"omitempty,hostname_port"`
	PropagationDelay Duration `json:"propagation_delay" yaml:"propagation_delay" toml:"propagation_delay"`
}

type MonitoringConfig struct {
	Enabled     bool   `json:"enabled" yaml:"enabled" toml:"enabled"`
	ServiceName string `json:"service_name" yaml:"service_name" toml:"service_name" validate:"required_if=Enabled true"`
	AdapterName string `json:"adapter_name" yaml:"adapter_name" toml:"adapter_name" validate:"required_if=Enabled true"`
}

type SBStateMonitorConfig struct {
	Enabled      bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	TopicManager string   `json:"topic_manager" yaml:"topic_manager" toml:"topic_manager"`
	Topic        string   `json:"topic" yaml:"topic" toml:"topic" validate:"required_if=Enabled true"`
	States       []string `json:"states" yaml:"states" toml:"states" validate:"dive,required"`
}

type NotificationConfig struct {
	Backend       string   `json:"backend" yaml:"backend" toml:"backend" validate:"oneof=process relay none"`
	Tool          string   `json:"tool" yaml:"tool" toml:"tool"`
	Comment       string   `json:"comment" yaml:"comment" toml:"comment"`
	IssueID       string   `json:"issue_id" yaml:"issue_id" toml:"issue_id"`
	CredentialEnv []string `json:"credential_env" yaml:"credential_env" toml:"credential_env"`
	TopicManager  string   `json:"topic_manager" yaml:"topic_manager" toml:"topic_manager"`
	Topic         string   `json:"topic" yaml:"topic" toml:"topic"`
}

type ActivationConfig struct {
	RetryInterval Duration `json:"retry_interval" yaml:"retry_interval" toml:"retry_interval"`
	// MaxAttempts of 0 retries until the process stops.
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts" toml:"max_attempts" validate:"gte=0"`
}

type RegistrationConfig struct {
	PollInterval Duration `json:"poll_interval" yaml:"poll_interval" toml:"poll_interval"`
	// MaxPolls of 0 polls until confirmed or cancelled.
	MaxPolls int `json:"max_polls" yaml:"max_polls" toml:"max_polls" validate:"gte=0"`
}

type CORSConfig struct {
	Enabled        bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins" toml:"allowed_origins"`
	AllowedMethods []string `json:"allowed_methods" yaml:"allowed_methods" toml:"allowed_methods"`
	AllowedHeaders []string `json:"allowed_headers" yaml:"allowed_headers" toml:"allowed_headers"`
}

// Default returns the configuration used when no file or override sets a key.
func Default() Config {
	return Config{
		Addr:      ":8080",
		LogLevel:  "info",
		LogFormat: "json",
		Service: ServiceConfig{
			Name:        manager.DefaultServiceName,
			AdapterName: "CentralProcessorAdapter",
			AdminName:   manager.DefaultAdminName,
		},
		Monitoring: MonitoringConfig{
			ServiceName: "CentralProcessorMonitor",
			AdapterName: "CentralProcessorMonitorAdapter",
		},
		SBStateMonitor: SBStateMonitorConfig{
			TopicManager: relay.DefaultAddress,
			Topic:        notify.DefaultTopic,
			States:       []string{"PROCESSING"},
		},
		Notification: NotificationConfig{
			Backend:       notify.BackendProcess,
			Tool:          notify.DefaultTool,
			Comment:       notify.DefaultComment,
			CredentialEnv: append([]string(nil), notify.DefaultCredentialEnv...),
			TopicManager:  relay.DefaultAddress,
			Topic:         notify.DefaultRelayTopic,
		},
		Activation:   ActivationConfig{RetryInterval: Duration(5 * time.Second)},
		Registration: RegistrationConfig{PollInterval: Duration(100 * time.Millisecond)},
		CORS: CORSConfig{
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		},
	}
}

// AdminAdapter returns the adapter the admin object registers on.
func (c Config) AdminAdapter() string {
	if c.Service.AdminAdapterName == "" {
		return c.Service.AdapterName
	}
	return c.Service.AdminAdapterName
}

// Duration is a time.Duration read from strings such as "250ms" or "5s".
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(b), err)
	}
	*d = Duration(v)
	return nil
}
