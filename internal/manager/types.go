package manager

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/mitchellh/mapstructure"
)

// ServiceHandle is the hosted observation service. The controller treats it
// as opaque: it is created on startup, registered while ONLINE and closed on
// shutdown.
type ServiceHandle interface {
	Close() error
}

// ServiceFactory builds the hosted service from the startup parameters.
type ServiceFactory func(ctx context.Context, params map[string]string) (ServiceHandle, error)

// ObsServiceConfig is decoded from the startup parameters. Unknown keys are
// kept in ObsService.Params but otherwise ignored.
type ObsServiceConfig struct {
	Name    string `mapstructure:"name"`
	WorkDir string `mapstructure:"workdir"`
	DryRun  bool   `mapstructure:"dryrun"`
	// MaxBlocks caps concurrently processed scheduling blocks; 0 = unlimited.
	MaxBlocks int `mapstructure:"max_blocks"`
}

// ObsService is the default hosted service handle.
type ObsService struct {
	Config  ObsServiceConfig
	Params  map[string]string
	Created time.Time
	closed  atomic.Bool
}

// NewObsService is the default ServiceFactory.
func NewObsService(_ context.Context, params map[string]string) (ServiceHandle, error) {
	var cfg ObsServiceConfig
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(params); err != nil {
		return nil, fmt.Errorf("decode startup params: %w", err)
	}
	if cfg.MaxBlocks < 0 {
		return nil, fmt.Errorf("max_blocks must be >= 0, got %d", cfg.MaxBlocks)
	}
	if cfg.Name == "" {
		cfg.Name = DefaultServiceName
	}
	cp := make(map[string]string, len(params))
	for k, v := range params {
		cp[k] = v
	}
	return &ObsService{Config: cfg, Params: cp, Created: time.Now()}, nil
}

// Close marks the service closed. Closing twice is a no-op.
func (s *ObsService) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *ObsService) Closed() bool { return s.closed.Load() }

func (s *ObsService) String() string { return "ObsService(" + s.Config.Name + ")" }
