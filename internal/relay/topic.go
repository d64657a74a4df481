package relay

import (
	"errors"
	"fmt"
	"sync"

	"cpmanager/internal/notify"
	"cpmanager/pkg/types"
)

// ErrTopicDestroyed is returned when publishing on a destroyed topic.
var ErrTopicDestroyed = errors.New("relay: topic destroyed")

// Topic is one named channel on a Hub.
type Topic struct {
	name string
	hub  *Hub

	mu     sync.Mutex
	closed bool
	nextID int
	subs   map[int]func()
}

var _ notify.Topic = (*Topic)(nil)

func (t *Topic) Name() string { return t.name }

// Publisher returns the one-way publishing side of the topic.
func (t *Topic) Publisher() notify.Publisher { return publisher{t: t} }

// Subscribe delivers every event published on t to fn. Events reach fn in
// publish order on a goroutine owned by the hub.
func (t *Topic) Subscribe(fn func(types.NotificationEvent)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return func() {}
	}
	unsub := t.hub.hub.Subscribe(t.name, func(topic string, data interface{}) {
		ev, ok := data.(types.NotificationEvent)
		if !ok {
			t.hub.log.Warn().Str("topic", topic).Str("type", fmt.Sprintf("%T", data)).Msg("dropping unexpected payload")
			return
		}
		fn(ev)
	})
	id := t.nextID
	t.nextID++
	t.subs[id] = unsub
	return func() {
		t.mu.Lock()
		u, ok := t.subs[id]
		delete(t.subs, id)
		t.mu.Unlock()
		if ok {
			u()
		}
	}
}

func (t *Topic) publish(ev types.NotificationEvent) error {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return fmt.Errorf("%w: %q", ErrTopicDestroyed, t.name)
	}
	_ = t.hub.hub.Publish(t.name, ev)
	return nil
}

func (t *Topic) close() {
	t.mu.Lock()
	t.closed = true
	subs := t.subs
	t.subs = make(map[int]func())
	t.mu.Unlock()
	for _, u := range subs {
		u()
	}
}

type publisher struct{ t *Topic }

func (p publisher) Changed(sbid int64, state types.ObsState, updateTime string) error {
	return p.t.publish(types.NotificationEvent{SBID: sbid, State: state, UpdateTime: updateTime})
}
