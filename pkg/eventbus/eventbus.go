// Package eventbus publishes domain events over watermill. Events stay in
// process on a gochannel unless a NATS connection is configured.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/mozilla/mozilla-ignite/pkg/observability/attr"
)

// CorrelationIDMetadataKey is the watermill metadata key for correlation ids.
const CorrelationIDMetadataKey = "correlation_id"

// EventBus is the publish/subscribe surface modules depend on.
type EventBus interface {
	Publish(topic string, messages ...*message.Message) error
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
	Close() error
}

// ChannelBus is an in-process EventBus.
type ChannelBus struct {
	pubsub *gochannel.GoChannel
}

var _ EventBus = (*ChannelBus)(nil)

// NewChannelBus builds an in-process bus. Messages published before any
// subscriber exists are dropped.
func NewChannelBus(logger *slog.Logger) *ChannelBus {
	return &ChannelBus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, watermill.NewSlogLogger(logger)),
	}
}

func (b *ChannelBus) Publish(topic string, messages ...*message.Message) error {
	return b.pubsub.Publish(topic, messages...)
}

func (b *ChannelBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, topic)
}

func (b *ChannelBus) Close() error {
	return b.pubsub.Close()
}

// NewMessage encodes payload as JSON and stamps the correlation id from ctx.
func NewMessage(ctx context.Context, payload any) (*message.Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), body)
	if id := attr.CorrelationID(ctx); id != "" {
		msg.Metadata.Set(CorrelationIDMetadataKey, id)
	}
	msg.SetContext(ctx)
	return msg, nil
}

// PublishEvent is the one-call form used by services.
func PublishEvent(ctx context.Context, bus EventBus, topic string, payload any) error {
	if bus == nil {
		return nil
	}
	msg, err := NewMessage(ctx, payload)
	if err != nil {
		return err
	}
	if err := bus.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", topic, err)
	}
	return nil
}

// ScopedTopic appends a challenge scope so consumers can subscribe to
// "award.distributed.v1.*" or one challenge only.
func ScopedTopic(baseTopic, scope string) string {
	if scope == "" {
		return baseTopic
	}
	return fmt.Sprintf("%s.%s", baseTopic, scope)
}

// Decode unmarshals a message payload into T.
func Decode[T any](msg *message.Message) (T, error) {
	var v T
	if err := json.Unmarshal(msg.Payload, &v); err != nil {
		return v, fmt.Errorf("failed to decode event %s: %w", msg.UUID, err)
	}
	return v, nil
}
