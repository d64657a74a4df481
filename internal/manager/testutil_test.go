package manager

import (
	"context"
	"sync"
	"testing"
	"time"

	"cpmanager/pkg/types"
)

// fakeBackend is an in-memory RegistrationBackend. After each Register or
// Deregister, the next lag calls to Find still report the previous value.
type fakeBackend struct {
	mu        sync.Mutex
	desired   map[string]bool
	countdown map[string]int
	lag       int
	finds     int

	registerErr   error
	deregisterErr error
	activateErrs  []error
	activations   int

	onRegister   func(id string)
	onDeregister func(id string)
}

func newFakeBackend(lag int) *fakeBackend {
	return &fakeBackend{desired: map[string]bool{}, countdown: map[string]int{}, lag: lag}
}

func (b *fakeBackend) Register(id string, _ any) error {
	if b.onRegister != nil {
		b.onRegister(id)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.registerErr != nil {
		return b.registerErr
	}
	b.desired[id] = true
	b.countdown[id] = b.lag
	return nil
}

func (b *fakeBackend) Deregister(id string) error {
	if b.onDeregister != nil {
		b.onDeregister(id)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.deregisterErr != nil {
		return b.deregisterErr
	}
	b.desired[id] = false
	b.countdown[id] = b.lag
	return nil
}

func (b *fakeBackend) Find(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.finds++
	if b.countdown[id] > 0 {
		b.countdown[id]--
		return !b.desired[id]
	}
	return b.desired[id]
}

func (b *fakeBackend) Activate() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.activations++
	if len(b.activateErrs) == 0 {
		return nil
	}
	err := b.activateErrs[0]
	b.activateErrs = b.activateErrs[1:]
	return err
}

func (b *fakeBackend) findCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.finds
}

func (b *fakeBackend) present(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.desired[id]
}

// newTestController builds a controller polling every millisecond.
func newTestController(t *testing.T, b RegistrationBackend) *Controller {
	t.Helper()
	c, err := NewWithConfig(ControllerConfig{Backend: b, PollInterval: time.Millisecond})
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}
	return c
}

// moveTo drives c from LOADED to want through valid transitions.
func moveTo(t *testing.T, c *Controller, want types.ComponentState) {
	t.Helper()
	ctx := context.Background()
	if want >= types.StateStandby {
		if err := c.Startup(ctx, nil); err != nil {
			t.Fatalf("startup: %v", err)
		}
	}
	if want == types.StateOnline {
		if err := c.Activate(ctx); err != nil {
			t.Fatalf("activate: %v", err)
		}
	}
	if got := c.State(); got != want {
		t.Fatalf("moveTo: state=%s want %s", got, want)
	}
}
