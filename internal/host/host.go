// Package host runs the daemon: it builds the components from configuration,
// brings the adapter online, serves the admin API until the context ends and
// then tears everything down in order.
package host

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"cpmanager/internal/config"
	"cpmanager/internal/httpapi"
	"cpmanager/internal/manager"
	"cpmanager/internal/monitoring"
	"cpmanager/internal/notify"
	"cpmanager/internal/registry"
	"cpmanager/internal/relay"
	"cpmanager/pkg/types"
)

const defaultShutdownTimeout = 10 * time.Second

// Option customises a Host.
type Option func(*Host)

// WithRegisterer sets where the monitoring collectors are registered.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(h *Host) { h.registerer = r }
}

// WithNotifyEnv sets the environment of the annotation tool.
func WithNotifyEnv(env []string) Option {
	return func(h *Host) { h.notifyEnv = env }
}

// WithShutdownTimeout bounds the teardown sequence.
func WithShutdownTimeout(d time.Duration) Option {
	return func(h *Host) { h.shutdownTimeout = d }
}

// Host owns every long-lived component of the daemon.
type Host struct {
	cfg config.Config
	log zerolog.Logger

	registerer      prometheus.Registerer
	notifyEnv       []string
	shutdownTimeout time.Duration

	hub          *relay.Hub
	adapter      *registry.Adapter
	adminAdapter *registry.Adapter
	registrar    *manager.Registrar
	adminReg     *manager.Registrar
	controller   *manager.Controller
	mon          *monitoring.Context
	monitor      *notify.StateMonitor
	server       *http.Server

	mu      sync.Mutex
	addr    net.Addr
	ready   chan struct{}
	adminUp bool
}

// New validates cfg and builds the components that need no I/O.
func New(cfg config.Config, log zerolog.Logger, opts ...Option) (*Host, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	h := &Host{
		cfg:             cfg,
		log:             log,
		registerer:      prometheus.DefaultRegisterer,
		shutdownTimeout: defaultShutdownTimeout,
		ready:           make(chan struct{}),
	}
	for _, o := range opts {
		o(h)
	}

	h.hub = relay.New(relay.Config{Address: cfg.SBStateMonitor.TopicManager, Logger: &log})
	adapterCfg := func(name string, requireObjects bool) registry.Config {
		return registry.Config{
			Name:             name,
			Locator:          cfg.Service.Locator,
			PropagationDelay: cfg.Service.PropagationDelay.Std(),
			RequireObjects:   requireObjects,
			Logger:           &log,
		}
	}
	if name := cfg.AdminAdapter(); name != cfg.Service.AdapterName {
		// The hosted service is only registered on activate, so its own
		// adapter may come up empty.
		h.adminAdapter = registry.New(adapterCfg(name, true))
		h.adapter = registry.New(adapterCfg(cfg.Service.AdapterName, false))
	} else {
		h.adapter = registry.New(adapterCfg(cfg.Service.AdapterName, true))
		h.adminAdapter = h.adapter
	}
	regCfg := manager.RegistrarConfig{
		PollInterval: cfg.Registration.PollInterval.Std(),
		MaxPolls:     cfg.Registration.MaxPolls,
		Logger:       &log,
	}
	h.registrar = manager.NewRegistrar(h.adapter, regCfg)
	h.adminReg = h.registrar
	if h.adminAdapter != h.adapter {
		h.adminReg = manager.NewRegistrar(h.adminAdapter, regCfg)
	}

	c, err := manager.NewWithConfig(manager.ControllerConfig{
		Identity:  cfg.Service.Name,
		Registrar: h.registrar,
		Logger:    &log,
	})
	if err != nil {
		return nil, err
	}
	h.controller = c
	return h, nil
}

// Controller returns the lifecycle controller.
func (h *Host) Controller() *manager.Controller { return h.controller }

// Hub returns the in-process relay.
func (h *Host) Hub() *relay.Hub { return h.hub }

// Adapter returns the adapter the hosted service registers on.
func (h *Host) Adapter() *registry.Adapter { return h.adapter }

// Ready is closed once the admin API is listening.
func (h *Host) Ready() <-chan struct{} { return h.ready }

// Addr is the listening address; nil before Ready.
func (h *Host) Addr() net.Addr {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.addr
}

// Run brings the daemon up, serves until ctx is done and tears down. The
// error reports a failed run-up or server; teardown problems are logged.
func (h *Host) Run(ctx context.Context) error {
	h.log.Info().Str("version", h.controller.Version()).Msg("central processor manager starting")
	ln, err := h.runUp(ctx)
	if err != nil {
		h.teardown()
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := h.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	h.mu.Lock()
	h.addr = ln.Addr()
	h.mu.Unlock()
	close(h.ready)
	h.log.Info().Str("addr", ln.Addr().String()).Msg("admin API listening")

	var runErr error
	select {
	case <-ctx.Done():
		h.log.Info().Msg("shutdown requested")
	case err := <-serveErr:
		if err != nil {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}
	h.teardown()
	return runErr
}

func (h *Host) runUp(ctx context.Context) (net.Listener, error) {
	cfg := h.cfg

	if cfg.Monitoring.Enabled {
		mon, err := monitoring.New(monitoring.Config{
			Registerer:  h.registerer,
			ServiceName: cfg.Monitoring.ServiceName,
			AdapterName: cfg.Monitoring.AdapterName,
		})
		if err != nil {
			h.log.Error().Err(err).Msg("monitoring sub-system failed to initialise")
		} else {
			h.mon = mon
			h.controller.SetEventPublisher(manager.MultiPublisher{mon})
		}
	}

	if cfg.SBStateMonitor.Enabled {
		if err := h.initStateMonitor(ctx); err != nil {
			h.log.Error().Err(err).Msg("scheduling block state change subscriber failed to initialise")
		}
	}

	if err := h.adminReg.Register(ctx, cfg.Service.AdminName, h.controller); err != nil {
		return nil, fmt.Errorf("register admin object: %w", err)
	}
	h.mu.Lock()
	h.adminUp = true
	h.mu.Unlock()

	actCfg := manager.ActivatorConfig{
		RetryInterval: cfg.Activation.RetryInterval.Std(),
		MaxAttempts:   cfg.Activation.MaxAttempts,
		Logger:        &h.log,
	}
	if err := manager.NewActivator(h.adminAdapter, actCfg).Activate(ctx); err != nil {
		return nil, err
	}
	if h.adapter != h.adminAdapter {
		if err := manager.NewActivator(h.adapter, actCfg).Activate(ctx); err != nil {
			return nil, err
		}
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}
	httpapi.SetLogger(h.log)
	httpapi.SetBaseContext(ctx)
	httpapi.SetCORSOptions(cfg.CORS.Enabled, cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders)
	opts := []httpapi.Option{
		httpapi.WithObjects(h.objects),
		httpapi.WithReadinessCheck("adapter", func() error {
			if !h.adapter.Active() {
				return errors.New("adapter inactive")
			}
			return nil
		}),
	}
	if h.monitor != nil {
		opts = append(opts, httpapi.WithStatePublisher(h.monitor.Publish))
	}
	h.server = &http.Server{
		Handler:           httpapi.NewMux(h.controller, opts...),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return ln, nil
}

func (h *Host) initStateMonitor(ctx context.Context) error {
	cfg := h.cfg
	env := h.notifyEnv
	if env == nil {
		env = os.Environ()
	}
	n, err := notify.New(ctx, cfg.NotifyConfig(env), notify.Deps{Resolver: h.hub, Logger: &h.log})
	if err != nil {
		return err
	}
	mgr, err := h.hub.Resolve(cfg.SBStateMonitor.TopicManager)
	if err != nil {
		return err
	}
	states, err := cfg.MonitorStates()
	if err != nil {
		return err
	}
	mcfg := notify.MonitorConfig{
		Topic:  cfg.SBStateMonitor.Topic,
		States: states,
		Logger: &h.log,
	}
	if h.mon != nil {
		mcfg.Observer = h.mon
	}
	m, err := notify.NewStateMonitor(mgr, n, mcfg)
	if err != nil {
		return err
	}
	if err := m.Start(ctx); err != nil {
		return err
	}
	h.monitor = m
	return nil
}

// objects lists identities on both adapters.
func (h *Host) objects() []string {
	out := h.adapter.Objects()
	if h.adminAdapter != h.adapter {
		out = append(out, h.adminAdapter.Objects()...)
	}
	return out
}

// teardown runs strictly in order: unsubscribe, withdraw objects, stop the
// adapters, stop HTTP, destroy monitoring.
func (h *Host) teardown() {
	ctx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
	defer cancel()

	if h.monitor != nil {
		h.monitor.Unsubscribe()
		h.log.Info().Msg("teardown: state monitor unsubscribed")
	}

	if h.controller.State() == types.StateOnline {
		if err := h.controller.Deactivate(ctx); err != nil {
			h.log.Error().Err(err).Msg("teardown: deactivate hosted service")
		}
	}
	h.mu.Lock()
	adminUp := h.adminUp
	h.adminUp = false
	h.mu.Unlock()
	if adminUp {
		if err := h.adminReg.Deregister(ctx, h.cfg.Service.AdminName); err != nil {
			h.log.Error().Err(err).Msg("teardown: deregister admin object")
		}
	}
	h.log.Info().Msg("teardown: objects deregistered")

	for _, a := range h.adapters() {
		a.Deactivate()
		a.Destroy()
	}
	h.log.Info().Msg("teardown: adapter destroyed")

	if h.server != nil {
		if err := h.server.Shutdown(ctx); err != nil {
			h.log.Warn().Err(err).Msg("teardown: http shutdown")
		}
		h.log.Info().Msg("teardown: http server stopped")
	}

	if h.mon != nil {
		if err := h.mon.Destroy(); err != nil {
			h.log.Warn().Err(err).Msg("teardown: destroy monitoring")
		}
		h.log.Info().Msg("teardown: monitoring destroyed")
	}
}

func (h *Host) adapters() []*registry.Adapter {
	if h.adminAdapter == h.adapter {
		return []*registry.Adapter{h.adapter}
	}
	return []*registry.Adapter{h.adminAdapter, h.adapter}
}
