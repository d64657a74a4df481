package manager

import (
	"errors"
	"fmt"

	"cpmanager/pkg/types"
)

var (
	// ErrInvalidTransition is returned when an operation is called in a
	// state that does not satisfy its precondition.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrCannotTest is returned by SelfTest outside STANDBY.
	ErrCannotTest = errors.New("cannot test")
	// ErrNotConfirmed is returned when a capped confirmation loop gives up.
	ErrNotConfirmed = errors.New("registration not confirmed")
)

// TransitionError records a rejected operation and the state it saw.
type TransitionError struct {
	Op    string
	State types.ComponentState
	Want  types.ComponentState
	err   error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: not in %s state (state=%s)", e.Op, e.Want, e.State)
}

func (e *TransitionError) Unwrap() error { return e.err }

// IsInvalidTransition reports whether err is a rejected state transition (409).
func IsInvalidTransition(err error) bool { return errors.Is(err, ErrInvalidTransition) }

// IsCannotTest reports whether err is a self test rejected for its state (409).
func IsCannotTest(err error) bool { return errors.Is(err, ErrCannotTest) }
