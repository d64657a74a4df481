// Package relay is an in-process publish/subscribe relay for scheduling block
// state changes, backed by a juju/pubsub SimpleHub.
package relay

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/juju/pubsub/v2"
	"github.com/rs/zerolog"

	"cpmanager/internal/notify"
)

// DefaultAddress is the topic manager address the in-process hub answers to.
const DefaultAddress = "TopicManager"

// ErrUnknownAddress is returned by Resolve for an address the hub does not
// serve.
var ErrUnknownAddress = errors.New("unknown topic manager address")

// Config configures a Hub.
type Config struct {
	// Address is matched by Resolve; DefaultAddress when empty.
	Address string
	Logger  *zerolog.Logger
}

// Hub is a TopicManager whose topics share one SimpleHub.
type Hub struct {
	hub     *pubsub.SimpleHub
	address string
	log     zerolog.Logger

	mu     sync.Mutex
	topics map[string]*Topic
}

var _ notify.TopicManager = (*Hub)(nil)
var _ notify.TopicResolver = (*Hub)(nil)

// New returns an empty hub.
func New(cfg Config) *Hub {
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = cfg.Logger.With().Str("component", "relay").Logger()
	}
	addr := strings.TrimSpace(cfg.Address)
	if addr == "" {
		addr = DefaultAddress
	}
	return &Hub{
		hub: pubsub.NewSimpleHub(&pubsub.SimpleHubConfig{
			Logger: hubLogger{log: log},
		}),
		address: addr,
		log:     log,
		topics:  make(map[string]*Topic),
	}
}

// Address returns the address Resolve answers to.
func (h *Hub) Address() string { return h.address }

// Resolve returns h when addr is empty or names this hub.
func (h *Hub) Resolve(addr string) (notify.TopicManager, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" || addr == h.address {
		return h, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAddress, addr)
}

// Create adds a topic. It fails with notify.ErrTopicExists when name is taken.
func (h *Hub) Create(name string) (notify.Topic, error) {
	name, err := topicName(name)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.topics[name]; ok {
		return nil, fmt.Errorf("%w: %q", notify.ErrTopicExists, name)
	}
	t := &Topic{name: name, hub: h, subs: make(map[int]func())}
	h.topics[name] = t
	h.log.Debug().Str("topic", name).Msg("topic created")
	return t, nil
}

// Retrieve looks up a topic. It fails with notify.ErrNoSuchTopic when absent.
func (h *Hub) Retrieve(name string) (notify.Topic, error) {
	name, err := topicName(name)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ok := h.topics[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", notify.ErrNoSuchTopic, name)
	}
	return t, nil
}

// Destroy removes a topic and drops its subscriptions.
func (h *Hub) Destroy(name string) error {
	name, err := topicName(name)
	if err != nil {
		return err
	}
	h.mu.Lock()
	t, ok := h.topics[name]
	delete(h.topics, name)
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", notify.ErrNoSuchTopic, name)
	}
	t.close()
	h.log.Debug().Str("topic", name).Msg("topic destroyed")
	return nil
}

// Topics lists topic names in order.
func (h *Hub) Topics() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.topics))
	for n := range h.topics {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func topicName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("relay: topic name is required")
	}
	return name, nil
}

// hubLogger routes SimpleHub diagnostics to zerolog.
type hubLogger struct{ log zerolog.Logger }

func (l hubLogger) Errorf(format string, args ...interface{})   { l.log.Error().Msgf(format, args...) }
func (l hubLogger) Warningf(format string, args ...interface{}) { l.log.Warn().Msgf(format, args...) }
func (l hubLogger) Infof(format string, args ...interface{})    { l.log.Info().Msgf(format, args...) }
func (l hubLogger) Debugf(format string, args ...interface{})   { l.log.Debug().Msgf(format, args...) }
func (l hubLogger) Tracef(format string, args ...interface{})   { l.log.Trace().Msgf(format, args...) }
