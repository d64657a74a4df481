package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cpmanager/pkg/types"
)

// Publisher is the one-way side of a topic. Delivery is fire-and-forget.
type Publisher interface {
	Changed(sbid int64, state types.ObsState, updateTime string) error
}

// Topic is a named relay channel.
type Topic interface {
	Name() string
	Publisher() Publisher
	// Subscribe registers fn for every event published on the topic and
	// returns a function that removes the subscription.
	Subscribe(fn func(types.NotificationEvent)) (unsubscribe func())
}

// TopicManager creates and looks up topics.
type TopicManager interface {
	Retrieve(name string) (Topic, error)
	Create(name string) (Topic, error)
}

// TopicResolver maps a topic manager address from configuration to a
// TopicManager.
type TopicResolver interface {
	Resolve(addr string) (TopicManager, error)
}

// ObtainTopic retrieves name, creating it when absent. A creation that races
// another creator falls back to retrieving again. Any other error, or ctx
// being done, ends the loop.
func ObtainTopic(ctx context.Context, mgr TopicManager, name string) (Topic, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("topic name is required")
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, err := mgr.Retrieve(name)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, ErrNoSuchTopic) {
			return nil, fmt.Errorf("retrieve topic %q: %w", name, err)
		}
		t, err = mgr.Create(name)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, ErrTopicExists) {
			return nil, fmt.Errorf("create topic %q: %w", name, err)
		}
	}
}
