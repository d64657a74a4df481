package manager

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// Activator activates a RegistrationBackend, retrying transient failures
// (connection refused, no endpoint, not registered) at a fixed interval.
// Any other failure is returned immediately.
type Activator struct {
	backend     RegistrationBackend
	interval    time.Duration
	maxAttempts int
	log         zerolog.Logger
}

// NewActivator constructs an Activator over backend.
func NewActivator(backend RegistrationBackend, cfg ActivatorConfig) *Activator {
	interval := cfg.RetryInterval
	if interval <= 0 {
		interval = defaultRetryInterval
	}
	return &Activator{
		backend:     backend,
		interval:    interval,
		maxAttempts: cfg.MaxAttempts,
		log:         loggerOrNop(cfg.Logger),
	}
}

// Activate blocks until the backend activates, a permanent error occurs, the
// attempt cap is reached or ctx is done.
func (a *Activator) Activate(ctx context.Context) error {
	attempt := 0
	op := func() error {
		attempt++
		err := a.backend.Activate()
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		a.log.Warn().
			Err(err).
			Int("attempt", attempt).
			Msgf("%s - will retry in %s", describeTransient(err), next)
	}

	var b backoff.BackOff = backoff.NewConstantBackOff(a.interval)
	if a.maxAttempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(a.maxAttempts-1))
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify); err != nil {
		return fmt.Errorf("activate adapter after %d attempt(s): %w", attempt, err)
	}
	a.log.Info().Int("attempts", attempt).Msg("adapter activated")
	return nil
}
