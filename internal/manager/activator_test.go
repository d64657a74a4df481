package manager

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestActivatorRetriesTransientErrors(t *testing.T) {
	b := newFakeBackend(0)
	b.activateErrs = []error{
		ErrConnectionRefused,
		fmt.Errorf("dial locator: %w", ErrNoEndpoint),
		ErrNotRegistered,
	}
	a := NewActivator(b, ActivatorConfig{RetryInterval: time.Millisecond})
	if err := a.Activate(context.Background()); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if b.activations != 4 {
		t.Fatalf("expected 4 attempts, got %d", b.activations)
	}
}

func TestActivatorPermanentErrorReturnsImmediately(t *testing.T) {
	boom := errors.New("adapter destroyed")
	b := newFakeBackend(0)
	b.activateErrs = []error{boom, nil}
	a := NewActivator(b, ActivatorConfig{RetryInterval: time.Millisecond})
	err := a.Activate(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if b.activations != 1 {
		t.Fatalf("expected a single attempt, got %d", b.activations)
	}
}

func TestActivatorMaxAttempts(t *testing.T) {
	b := newFakeBackend(0)
	b.activateErrs = []error{ErrConnectionRefused, ErrConnectionRefused, ErrConnectionRefused, ErrConnectionRefused}
	a := NewActivator(b, ActivatorConfig{RetryInterval: time.Millisecond, MaxAttempts: 3})
	err := a.Activate(context.Background())
	if !errors.Is(err, ErrConnectionRefused) {
		t.Fatalf("expected last transient error, got %v", err)
	}
	if b.activations != 3 {
		t.Fatalf("expected 3 attempts, got %d", b.activations)
	}
}

func TestActivatorContextCancel(t *testing.T) {
	b := newFakeBackend(0)
	for i := 0; i < 1000; i++ {
		b.activateErrs = append(b.activateErrs, ErrNoEndpoint)
	}
	a := NewActivator(b, ActivatorConfig{})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := a.Activate(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("cancellation did not interrupt the 5s backoff")
	}
}

func TestIsTransient(t *testing.T) {
	if !IsTransient(fmt.Errorf("wrap: %w", ErrConnectionRefused)) {
		t.Fatalf("wrapped connection refused should be transient")
	}
	if IsTransient(errors.New("other")) || IsTransient(nil) {
		t.Fatalf("unexpected transient classification")
	}
}
