package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"cpmanager/pkg/types"
)

// RelayNotifier publishes events on a relay topic. Delivery is at most once:
// there is no acknowledgment and no retry.
type RelayNotifier struct {
	topic     Topic
	publisher Publisher
	log       zerolog.Logger
}

// NewRelayNotifier obtains cfg.Topic from mgr, creating it when absent, and
// keeps the topic's publisher for the notifier's lifetime.
func NewRelayNotifier(ctx context.Context, cfg Config, mgr TopicManager, log zerolog.Logger) (*RelayNotifier, error) {
	cfg = cfg.withDefaults()
	t, err := ObtainTopic(ctx, mgr, cfg.Topic)
	if err != nil {
		return nil, fmt.Errorf("relay notifier: %w", err)
	}
	log.Info().Str("topic", t.Name()).Msg("relay notifier ready")
	return &RelayNotifier{topic: t, publisher: t.Publisher(), log: log}, nil
}

func (r *RelayNotifier) Name() string { return BackendRelay }

// Topic is the name of the topic events are published on.
func (r *RelayNotifier) Topic() string { return r.topic.Name() }

func (r *RelayNotifier) Notify(ctx context.Context, ev types.NotificationEvent) error {
	if err := ctx.Err(); err != nil {
		return &NotificationError{Backend: BackendRelay, SBID: ev.SBID, ExitCode: -1, Cause: err}
	}
	if err := r.publisher.Changed(ev.SBID, ev.State, ev.UpdateTime); err != nil {
		return &NotificationError{Backend: BackendRelay, SBID: ev.SBID, ExitCode: -1, Cause: err}
	}
	r.log.Debug().Int64("sbid", ev.SBID).Str("topic", r.topic.Name()).Msg("state change published")
	return nil
}
