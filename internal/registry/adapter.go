// Package registry provides the in-process object adapter the controller
// registers its objects with.
package registry

import (
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"cpmanager/internal/manager"
)

var (
	ErrAlreadyRegistered = errors.New("object already registered")
	ErrObjectNotFound    = errors.New("object not found")
	ErrDestroyed         = errors.New("adapter destroyed")
)

const defaultDialTimeout = 2 * time.Second

// Config configures an Adapter.
type Config struct {
	// Name identifies the adapter in logs.
	Name string
	// Locator is a host:port probed by Activate; empty disables the probe.
	Locator string
	// PropagationDelay is how long a Register or Deregister takes to become
	// visible through Find.
	PropagationDelay time.Duration
	DialTimeout      time.Duration
	// RequireObjects makes Activate fail with manager.ErrNotRegistered while
	// no object is registered.
	RequireObjects bool
	Logger         *zerolog.Logger
}

// Adapter is an in-memory object table with asynchronous visibility.
type Adapter struct {
	cfg Config
	log zerolog.Logger

	mu        sync.Mutex
	desired   map[string]any
	visible   map[string]any
	gen       map[string]uint64
	timers    map[*time.Timer]struct{}
	active    bool
	destroyed bool
}

var _ manager.RegistrationBackend = (*Adapter)(nil)

// New returns an inactive adapter.
func New(cfg Config) *Adapter {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = cfg.Logger.With().Str("adapter", cfg.Name).Logger()
	}
	return &Adapter{
		cfg:     cfg,
		log:     log,
		desired: map[string]any{},
		visible: map[string]any{},
		gen:     map[string]uint64{},
		timers:  map[*time.Timer]struct{}{},
	}
}

// Name returns the configured adapter name.
func (a *Adapter) Name() string { return a.cfg.Name }

func (a *Adapter) Register(id string, target any) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("registry: empty identity")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return ErrDestroyed
	}
	if _, ok := a.desired[id]; ok {
		return fmt.Errorf("%w: %q", ErrAlreadyRegistered, id)
	}
	a.desired[id] = target
	a.scheduleLocked(id, target, true)
	a.log.Debug().Str("identity", id).Msg("register requested")
	return nil
}

func (a *Adapter) Deregister(id string) error {
	id = strings.TrimSpace(id)
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return ErrDestroyed
	}
	if _, ok := a.desired[id]; !ok {
		return fmt.Errorf("%w: %q", ErrObjectNotFound, id)
	}
	delete(a.desired, id)
	a.scheduleLocked(id, nil, false)
	a.log.Debug().Str("identity", id).Msg("deregister requested")
	return nil
}

// Find reports whether id is currently visible.
func (a *Adapter) Find(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.visible[strings.TrimSpace(id)]
	return ok
}

// Objects lists visible identities in order.
func (a *Adapter) Objects() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.visible))
	for id := range a.visible {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Activate starts dispatching. With a locator configured it first checks the
// locator accepts connections; refused and unreachable locators map to the
// transient manager errors.
func (a *Adapter) Activate() error {
	a.mu.Lock()
	if a.destroyed {
		a.mu.Unlock()
		return ErrDestroyed
	}
	if a.cfg.RequireObjects && len(a.desired) == 0 {
		a.mu.Unlock()
		return manager.ErrNotRegistered
	}
	a.mu.Unlock()

	if a.cfg.Locator != "" {
		conn, err := net.DialTimeout("tcp", a.cfg.Locator, a.cfg.DialTimeout)
		if err != nil {
			if errors.Is(err, syscall.ECONNREFUSED) {
				return fmt.Errorf("locator %s: %w", a.cfg.Locator, manager.ErrConnectionRefused)
			}
			return fmt.Errorf("locator %s: %w: %v", a.cfg.Locator, manager.ErrNoEndpoint, err)
		}
		_ = conn.Close()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return ErrDestroyed
	}
	a.active = true
	a.log.Info().Str("locator", a.cfg.Locator).Msg("adapter active")
	return nil
}

// Active reports whether Activate succeeded and Deactivate has not run since.
func (a *Adapter) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// Deactivate stops dispatching; registered objects stay registered.
func (a *Adapter) Deactivate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.active {
		a.active = false
		a.log.Info().Msg("adapter inactive")
	}
}

// Destroy deactivates the adapter and drops every object. Later calls fail
// with ErrDestroyed.
func (a *Adapter) Destroy() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return
	}
	for t := range a.timers {
		t.Stop()
	}
	a.timers = map[*time.Timer]struct{}{}
	a.desired = map[string]any{}
	a.visible = map[string]any{}
	a.active = false
	a.destroyed = true
	a.log.Info().Msg("adapter destroyed")
}

// scheduleLocked makes the change visible after the propagation delay. A
// later change to the same id supersedes a pending one.
func (a *Adapter) scheduleLocked(id string, target any, present bool) {
	a.gen[id]++
	g := a.gen[id]
	if a.cfg.PropagationDelay <= 0 {
		a.applyLocked(id, target, present)
		return
	}
	var t *time.Timer
	t = time.AfterFunc(a.cfg.PropagationDelay, func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.timers, t)
		if a.destroyed || a.gen[id] != g {
			return
		}
		a.applyLocked(id, target, present)
	})
	a.timers[t] = struct{}{}
}

func (a *Adapter) applyLocked(id string, target any, present bool) {
	if present {
		a.visible[id] = target
	} else {
		delete(a.visible, id)
	}
}
