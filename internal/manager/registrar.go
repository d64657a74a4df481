package manager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

var errPending = errors.New("change not yet visible")

// Registrar registers objects with a RegistrationBackend and blocks until the
// backend confirms the change through Find.
type Registrar struct {
	backend  RegistrationBackend
	interval time.Duration
	maxPolls int
	log      zerolog.Logger
}

// NewRegistrar constructs a Registrar over backend.
func NewRegistrar(backend RegistrationBackend, cfg RegistrarConfig) *Registrar {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Registrar{
		backend:  backend,
		interval: interval,
		maxPolls: cfg.MaxPolls,
		log:      loggerOrNop(cfg.Logger),
	}
}

// Register requests registration of target under id and waits until Find
// reports it present.
func (r *Registrar) Register(ctx context.Context, id string, target any) error {
	if err := r.backend.Register(id, target); err != nil {
		return fmt.Errorf("register %q: %w", id, err)
	}
	if err := r.await(ctx, id, true); err != nil {
		return fmt.Errorf("register %q: %w", id, err)
	}
	r.log.Debug().Str("identity", id).Msg("registration confirmed")
	return nil
}

// Deregister requests removal of id and waits until Find reports it absent.
func (r *Registrar) Deregister(ctx context.Context, id string) error {
	if err := r.backend.Deregister(id); err != nil {
		return fmt.Errorf("deregister %q: %w", id, err)
	}
	if err := r.await(ctx, id, false); err != nil {
		return fmt.Errorf("deregister %q: %w", id, err)
	}
	r.log.Debug().Str("identity", id).Msg("deregistration confirmed")
	return nil
}

// abandon requests removal of id without waiting; used to undo a
// registration whose confirmation was interrupted.
func (r *Registrar) abandon(id string) {
	if err := r.backend.Deregister(id); err != nil {
		r.log.Warn().Str("identity", id).Err(err).Msg("abandon registration")
	}
}

func (r *Registrar) await(ctx context.Context, id string, present bool) error {
	polls := 0
	op := func() error {
		polls++
		if r.backend.Find(id) == present {
			return nil
		}
		return errPending
	}
	var b backoff.BackOff = backoff.NewConstantBackOff(r.interval)
	if r.maxPolls > 0 {
		b = backoff.WithMaxRetries(b, uint64(r.maxPolls-1))
	}
	err := backoff.Retry(op, backoff.WithContext(b, ctx))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errPending):
		return fmt.Errorf("%w after %d polls", ErrNotConfirmed, polls)
	default:
		return err
	}
}
