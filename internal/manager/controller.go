package manager

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"cpmanager/pkg/types"
)

// Controller is the administrative state machine for the hosted service:
// LOADED -> STANDBY -> ONLINE -> STANDBY -> LOADED.
type Controller struct {
	mu    sync.Mutex
	state atomic.Int32

	svc       ServiceHandle
	identity  string
	factory   ServiceFactory
	registrar *Registrar
	publisher EventPublisher
	log       zerolog.Logger
	version   string
}

// NewWithConfig constructs a Controller in the LOADED state.
func NewWithConfig(cfg ControllerConfig) (*Controller, error) {
	if cfg.Backend == nil && cfg.Registrar == nil {
		return nil, errors.New("manager: registration backend is required")
	}
	c := &Controller{
		identity:  strings.TrimSpace(cfg.Identity),
		factory:   cfg.Factory,
		registrar: cfg.Registrar,
		publisher: cfg.Publisher,
		log:       loggerOrNop(cfg.Logger),
		version:   cfg.Version,
	}
	if c.identity == "" {
		c.identity = DefaultServiceName
	}
	if c.factory == nil {
		c.factory = NewObsService
	}
	if c.registrar == nil {
		c.registrar = NewRegistrar(cfg.Backend, RegistrarConfig{
			PollInterval: cfg.PollInterval,
			MaxPolls:     cfg.MaxPolls,
			Logger:       cfg.Logger,
		})
	}
	if c.publisher == nil {
		c.publisher = noopPublisher{}
	}
	if c.version == "" {
		c.version = Version
	}
	c.state.Store(int32(types.StateLoaded))
	return c, nil
}

// SetEventPublisher replaces the lifecycle event sink.
func (c *Controller) SetEventPublisher(p EventPublisher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p == nil {
		p = noopPublisher{}
	}
	c.publisher = p
}

// State returns the current state. It does not take the transition lock and
// may be called from inside backend callbacks.
func (c *Controller) State() types.ComponentState {
	return types.ComponentState(c.state.Load())
}

// Identity is the name the hosted service registers under.
func (c *Controller) Identity() string { return c.identity }

// Version returns the component version string.
func (c *Controller) Version() string { return c.version }

// HasService reports whether a service handle currently exists.
func (c *Controller) HasService() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.svc != nil
}

// Startup creates the hosted service. Requires LOADED; ends in STANDBY.
func (c *Controller) Startup(ctx context.Context, params map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.require("startup", types.StateLoaded, ErrInvalidTransition); err != nil {
		return err
	}

	svc, err := c.factory(ctx, params)
	if err != nil {
		c.log.Error().Err(err).Msg("startup: service creation failed")
		return fmt.Errorf("startup: %w", err)
	}
	c.svc = svc

	// STANDBY only once all objects are created.
	c.setState(types.StateStandby)
	c.publish("startup", map[string]any{"params": len(params)})
	c.log.Info().Str("state", types.StateStandby.String()).Msg("startup complete")
	return nil
}

// Shutdown discards the hosted service. Requires STANDBY; ends in LOADED.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.require("shutdown", types.StateStandby, ErrInvalidTransition); err != nil {
		return err
	}

	// LOADED before destroying any objects.
	c.setState(types.StateLoaded)
	svc := c.svc
	c.svc = nil
	if svc != nil {
		if err := svc.Close(); err != nil {
			c.log.Warn().Err(err).Msg("shutdown: closing service")
		}
	}
	c.publish("shutdown", nil)
	c.log.Info().Str("state", types.StateLoaded.String()).Msg("shutdown complete")
	return nil
}

// Activate registers the hosted service and blocks until the backend reports
// it visible. Requires STANDBY; ends in ONLINE. On failure the state stays
// STANDBY and any half-finished registration is withdrawn.
func (c *Controller) Activate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.require("activate", types.StateStandby, ErrInvalidTransition); err != nil {
		return err
	}

	c.publish("activate_start", map[string]any{"identity": c.identity})
	if err := c.registrar.Register(ctx, c.identity, c.svc); err != nil {
		c.registrar.abandon(c.identity)
		c.publish("activate_failed", map[string]any{"identity": c.identity, "error": err.Error()})
		c.log.Error().Err(err).Str("identity", c.identity).Msg("activate failed")
		return fmt.Errorf("activate: %w", err)
	}

	// ONLINE only once the service is discoverable.
	c.setState(types.StateOnline)
	c.publish("activate_done", map[string]any{"identity": c.identity})
	c.log.Info().Str("identity", c.identity).Msg("service online")
	return nil
}

// Deactivate withdraws the hosted service. The state becomes STANDBY before
// deregistration starts; the call then blocks until the backend reports the
// service gone. Requires ONLINE.
func (c *Controller) Deactivate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.require("deactivate", types.StateOnline, ErrInvalidTransition); err != nil {
		return err
	}

	// STANDBY before deactivating any services.
	c.setState(types.StateStandby)
	c.publish("deactivate_start", map[string]any{"identity": c.identity})
	if err := c.registrar.Deregister(ctx, c.identity); err != nil {
		c.log.Error().Err(err).Str("identity", c.identity).Msg("deactivate failed")
		return fmt.Errorf("deactivate: %w", err)
	}
	c.publish("deactivate_done", map[string]any{"identity": c.identity})
	c.log.Info().Str("identity", c.identity).Msg("service offline")
	return nil
}

// SelfTest runs the component diagnostics. Requires STANDBY.
func (c *Controller) SelfTest(ctx context.Context) ([]types.TestResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.require("selftest", types.StateStandby, ErrCannotTest); err != nil {
		return nil, err
	}
	return []types.TestResult{}, nil
}

// require must be called with mu held.
func (c *Controller) require(op string, want types.ComponentState, kind error) error {
	cur := c.State()
	if cur == want {
		return nil
	}
	c.publish("transition_rejected", map[string]any{"op": op, "want": want.String()})
	c.log.Warn().Str("op", op).Str("state", cur.String()).Str("want", want.String()).Msg("transition rejected")
	return &TransitionError{Op: op, State: cur, Want: want, err: kind}
}

func (c *Controller) setState(s types.ComponentState) {
	c.state.Store(int32(s))
}

func (c *Controller) publish(name string, fields map[string]any) {
	if fields == nil {
		fields = map[string]any{}
	}
	c.publisher.Publish(Event{Name: name, State: c.State(), Fields: fields})
}
