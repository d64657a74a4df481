package manager

import "cpmanager/pkg/types"

// Event represents a controller lifecycle event.
// Minimal and stable: name + resulting state and optional fields via key/values.
type Event struct {
	Name   string
	State  types.ComponentState
	Fields map[string]any
}

// EventPublisher receives events from the controller. Publish is called while
// the transition lock is held, so implementations must be lightweight and
// non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
