package awardservice

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/mozilla/mozilla-ignite/pkg/eventbus"
)

// recordingBus captures published messages per topic.
type recordingBus struct {
	mu        sync.Mutex
	Published map[string][]*message.Message
	PublishFn func(topic string, messages ...*message.Message) error
}

var _ eventbus.EventBus = (*recordingBus)(nil)

func newRecordingBus() *recordingBus {
	return &recordingBus{Published: map[string][]*message.Message{}}
}

func (b *recordingBus) Publish(topic string, messages ...*message.Message) error {
	if b.PublishFn != nil {
		return b.PublishFn(topic, messages...)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Published[topic] = append(b.Published[topic], messages...)
	return nil
}

func (b *recordingBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	ch := make(chan *message.Message)
	close(ch)
	return ch, nil
}

func (b *recordingBus) Close() error { return nil }

func (b *recordingBus) count(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Published[topic])
}
