package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"cpmanager/pkg/types"
)

type fakeTopic struct {
	name string

	mu        sync.Mutex
	published []types.NotificationEvent
	pubErr    error
	handlers  map[int]func(types.NotificationEvent)
	next      int
}

func newFakeTopic(name string) *fakeTopic {
	return &fakeTopic{name: name, handlers: map[int]func(types.NotificationEvent){}}
}

func (t *fakeTopic) Name() string         { return t.name }
func (t *fakeTopic) Publisher() Publisher { return t }

func (t *fakeTopic) Changed(sbid int64, state types.ObsState, updateTime string) error {
	t.mu.Lock()
	if t.pubErr != nil {
		defer t.mu.Unlock()
		return t.pubErr
	}
	ev := types.NotificationEvent{SBID: sbid, State: state, UpdateTime: updateTime}
	t.published = append(t.published, ev)
	hs := make([]func(types.NotificationEvent), 0, len(t.handlers))
	for _, h := range t.handlers {
		hs = append(hs, h)
	}
	t.mu.Unlock()
	for _, h := range hs {
		h(ev)
	}
	return nil
}

func (t *fakeTopic) Subscribe(fn func(types.NotificationEvent)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.next
	t.next++
	t.handlers[id] = fn
	return func() {
		t.mu.Lock()
		delete(t.handlers, id)
		t.mu.Unlock()
	}
}

func (t *fakeTopic) events() []types.NotificationEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]types.NotificationEvent(nil), t.published...)
}

// scriptedManager answers Retrieve and Create from queued errors; once a queue
// is empty the call succeeds with topic.
type scriptedManager struct {
	topic       *fakeTopic
	retrieveErr []error
	createErr   []error
	calls       []string
}

func (m *scriptedManager) Retrieve(name string) (Topic, error) {
	m.calls = append(m.calls, "retrieve")
	if len(m.retrieveErr) > 0 {
		err := m.retrieveErr[0]
		m.retrieveErr = m.retrieveErr[1:]
		return nil, err
	}
	return m.topic, nil
}

func (m *scriptedManager) Create(name string) (Topic, error) {
	m.calls = append(m.calls, "create")
	if len(m.createErr) > 0 {
		err := m.createErr[0]
		m.createErr = m.createErr[1:]
		return nil, err
	}
	return m.topic, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []types.NotificationEvent
	err    error
}

func (n *recordingNotifier) Name() string { return "recording" }

func (n *recordingNotifier) Notify(_ context.Context, ev types.NotificationEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return n.err
}

func (n *recordingNotifier) got() []types.NotificationEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]types.NotificationEvent(nil), n.events...)
}

type dispatchRecord struct {
	backend, outcome string
	d                time.Duration
}

type recordingObserver struct {
	mu      sync.Mutex
	records []dispatchRecord
}

func (o *recordingObserver) ObserveDispatch(backend, outcome string, d time.Duration) {
	o.mu.Lock()
	o.records = append(o.records, dispatchRecord{backend, outcome, d})
	o.mu.Unlock()
}

var errBroken = errors.New("relay broken")
