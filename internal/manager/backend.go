package manager

import "errors"

// RegistrationBackend makes hosted objects reachable by remote callers.
// Register and Deregister only request the change; Find reports whether the
// object is currently visible, which may lag behind the request.
type RegistrationBackend interface {
	Register(id string, target any) error
	Deregister(id string) error
	Find(id string) bool
	Activate() error
}

// Transient activation failures. Backends wrap or return these so the
// Activator knows to retry.
var (
	ErrConnectionRefused = errors.New("connection refused")
	ErrNoEndpoint        = errors.New("no endpoint available")
	ErrNotRegistered     = errors.New("adapter not registered")
)

// IsTransient reports whether err is an activation failure worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrConnectionRefused) ||
		errors.Is(err, ErrNoEndpoint) ||
		errors.Is(err, ErrNotRegistered)
}

func describeTransient(err error) string {
	switch {
	case errors.Is(err, ErrConnectionRefused):
		return "Connection refused"
	case errors.Is(err, ErrNoEndpoint):
		return "No endpoint exception"
	case errors.Is(err, ErrNotRegistered):
		return "Not registered exception"
	default:
		return "Activation failed"
	}
}
