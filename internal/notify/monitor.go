package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"cpmanager/pkg/types"
)

// DispatchObserver records the outcome of each dispatched notification.
type DispatchObserver interface {
	ObserveDispatch(backend, outcome string, d time.Duration)
}

// Dispatch outcomes passed to DispatchObserver.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeInvalid = "invalid"
)

// MonitorConfig configures a StateMonitor.
type MonitorConfig struct {
	// Topic is the scheduling block state topic; DefaultTopic when empty.
	Topic string
	// States trigger a notification; {PROCESSING} when empty.
	States   []types.ObsState
	Observer DispatchObserver
	Logger   *zerolog.Logger
}

// StateMonitor follows the scheduling block state topic and hands matching
// events to a Notifier on the delivering goroutine.
type StateMonitor struct {
	mgr      TopicManager
	notifier Notifier
	topic    string
	states   map[types.ObsState]bool
	observer DispatchObserver
	log      zerolog.Logger

	mu     sync.Mutex
	pub    Publisher
	unsub  func()
	cancel context.CancelFunc
}

// NewStateMonitor validates cfg against n. A relay notifier publishing on the
// subscribed topic is rejected with ErrTopicLoop.
func NewStateMonitor(mgr TopicManager, n Notifier, cfg MonitorConfig) (*StateMonitor, error) {
	if mgr == nil {
		return nil, errors.New("state monitor: topic manager is required")
	}
	if n == nil {
		return nil, errors.New("state monitor: notifier is required")
	}
	topic := strings.TrimSpace(cfg.Topic)
	if topic == "" {
		topic = DefaultTopic
	}
	if rn, ok := n.(*RelayNotifier); ok && rn.Topic() == topic {
		return nil, fmt.Errorf("state monitor: %w (%q)", ErrTopicLoop, topic)
	}
	states := cfg.States
	if len(states) == 0 {
		states = []types.ObsState{types.ObsProcessing}
	}
	m := &StateMonitor{
		mgr:      mgr,
		notifier: n,
		topic:    topic,
		states:   make(map[types.ObsState]bool, len(states)),
		observer: cfg.Observer,
		log:      loggerOrNop(cfg.Logger),
	}
	for _, s := range states {
		m.states[s] = true
	}
	return m, nil
}

// Topic returns the subscribed topic name.
func (m *StateMonitor) Topic() string { return m.topic }

// Start obtains the topic and subscribes. Events delivered after Start are
// notified with a context derived from ctx.
func (m *StateMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unsub != nil {
		return errors.New("state monitor: already started")
	}
	t, err := ObtainTopic(ctx, m.mgr, m.topic)
	if err != nil {
		return fmt.Errorf("state monitor: %w", err)
	}
	dctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.cancel = cancel
	m.pub = t.Publisher()
	m.unsub = t.Subscribe(func(ev types.NotificationEvent) {
		_ = m.Dispatch(dctx, ev)
	})
	m.log.Info().Str("topic", m.topic).Str("backend", m.notifier.Name()).Msg("subscribed to scheduling block state changes")
	return nil
}

// Publish injects a state change onto the subscribed topic.
func (m *StateMonitor) Publish(ev types.NotificationEvent) error {
	m.mu.Lock()
	pub := m.pub
	m.mu.Unlock()
	if pub == nil {
		return errors.New("state monitor: not started")
	}
	if !ev.State.Valid() {
		return fmt.Errorf("invalid observation state %d", int(ev.State))
	}
	return pub.Changed(ev.SBID, ev.State, ev.UpdateTime)
}

// Dispatch filters ev and, if its state triggers, notifies inline. Failures
// are logged and returned; they never stop the subscription.
func (m *StateMonitor) Dispatch(ctx context.Context, ev types.NotificationEvent) error {
	id := uuid.NewString()
	log := m.log.With().Str("dispatch_id", id).Int64("sbid", ev.SBID).Logger()
	if !ev.State.Valid() {
		log.Warn().Int("state", int(ev.State)).Msg("dropping event with invalid state")
		m.observe(OutcomeInvalid, 0)
		return fmt.Errorf("invalid observation state %d", int(ev.State))
	}
	if !m.states[ev.State] {
		log.Debug().Str("state", ev.State.String()).Msg("state does not trigger notification")
		return nil
	}
	start := time.Now()
	err := m.notifier.Notify(ctx, ev)
	if err != nil {
		log.Error().Err(err).Str("state", ev.State.String()).Str("update_time", ev.UpdateTime).Msg("notification failed")
		m.observe(OutcomeError, time.Since(start))
		return err
	}
	log.Info().Str("state", ev.State.String()).Str("backend", m.notifier.Name()).Msg("notification sent")
	m.observe(OutcomeOK, time.Since(start))
	return nil
}

// Unsubscribe stops delivery and cancels in-flight notifications. Safe to
// call more than once.
func (m *StateMonitor) Unsubscribe() {
	m.mu.Lock()
	unsub, cancel := m.unsub, m.cancel
	m.unsub, m.cancel, m.pub = nil, nil, nil
	m.mu.Unlock()
	if unsub != nil {
		unsub()
		m.log.Info().Str("topic", m.topic).Msg("unsubscribed")
	}
	if cancel != nil {
		cancel()
	}
}

func (m *StateMonitor) observe(outcome string, d time.Duration) {
	if m.observer != nil {
		m.observer.ObserveDispatch(m.notifier.Name(), outcome, d)
	}
}
