package notify

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSuchTopic is returned by TopicManager.Retrieve for an unknown topic.
	ErrNoSuchTopic = errors.New("no such topic")
	// ErrTopicExists is returned by TopicManager.Create when the topic is
	// already present.
	ErrTopicExists = errors.New("topic exists")
	// ErrTopicLoop rejects a relay notifier publishing into the topic the
	// state monitor subscribes to.
	ErrTopicLoop = errors.New("notification topic equals subscribed topic")
	// ErrUnknownBackend is returned by New for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown notification backend")
)

// NotificationError reports a failed delivery. ExitCode is the tool's exit
// status for the process backend and -1 otherwise.
type NotificationError struct {
	Backend  string
	SBID     int64
	ExitCode int
	Output   string
	Cause    error
}

func (e *NotificationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("notify %s: sbid %d: %v", e.Backend, e.SBID, e.Cause)
	}
	return fmt.Sprintf("notify %s: sbid %d: exit code %d", e.Backend, e.SBID, e.ExitCode)
}

func (e *NotificationError) Unwrap() error { return e.Cause }

// IsNotificationError reports whether err is or wraps a *NotificationError.
func IsNotificationError(err error) bool {
	var ne *NotificationError
	return errors.As(err, &ne)
}
