package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/mozilla/mozilla-ignite/pkg/observability/attr"
	nc "github.com/nats-io/nats.go"
	"github.com/nats-io/nkeys"
)

const headerMessageUUID = "Watermill-UUID"

// Connect dials NATS with reconnects enabled. A non-empty nkey seed signs the
// server nonce with that key.
func Connect(url, nkeySeed string, logger *slog.Logger, opts ...nc.Option) (*nc.Conn, error) {
	options := []nc.Option{
		nc.Name("mozilla-ignite"),
		nc.MaxReconnects(-1),
		nc.ReconnectWait(2 * time.Second),
		nc.DisconnectErrHandler(func(_ *nc.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", attr.Error(err))
			}
		}),
	}
	if nkeySeed != "" {
		opt, err := nkeyOption(nkeySeed)
		if err != nil {
			return nil, err
		}
		options = append(options, opt)
	}
	options = append(options, opts...)

	conn, err := nc.Connect(url, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logger.Info("Connected to NATS", attr.String("url", conn.ConnectedUrlRedacted()))
	return conn, nil
}

func nkeyOption(seed string) (nc.Option, error) {
	kp, err := nkeys.FromSeed([]byte(seed))
	if err != nil {
		return nil, fmt.Errorf("invalid nkey seed: %w", err)
	}
	pub, err := kp.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("failed to derive nkey public key: %w", err)
	}
	return nc.Nkey(pub, func(nonce []byte) ([]byte, error) {
		return kp.Sign(nonce)
	}), nil
}

// NATSBus publishes watermill messages as core NATS messages. Metadata travels
// as NATS headers.
type NATSBus struct {
	conn   *nc.Conn
	logger watermill.LoggerAdapter
}

var _ EventBus = (*NATSBus)(nil)

func NewNATSBus(conn *nc.Conn, logger *slog.Logger) *NATSBus {
	return &NATSBus{conn: conn, logger: watermill.NewSlogLogger(logger)}
}

// Publish implements the message.Publisher interface.
func (b *NATSBus) Publish(topic string, messages ...*message.Message) error {
	for _, msg := range messages {
		out := nc.NewMsg(topic)
		out.Data = msg.Payload
		out.Header.Set(headerMessageUUID, msg.UUID)
		for k, v := range msg.Metadata {
			out.Header.Set(k, v)
		}
		b.logger.Debug("Publishing message", watermill.LogFields{"topic": topic, "uuid": msg.UUID})
		if err := b.conn.PublishMsg(out); err != nil {
			return fmt.Errorf("failed to publish message to NATS: %w", err)
		}
	}
	return nil
}

// Subscribe delivers messages on topic until ctx is done. Ack is a no-op
// signal here; core NATS has no redelivery.
func (b *NATSBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	raw := make(chan *nc.Msg, 64)
	sub, err := b.conn.ChanSubscribe(topic, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	out := make(chan *message.Message)
	go func() {
		defer close(out)
		defer sub.Unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case m := <-raw:
				msg := toWatermill(m)
				msg.SetContext(ctx)
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
				select {
				case <-msg.Acked():
				case <-msg.Nacked():
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func toWatermill(m *nc.Msg) *message.Message {
	id := m.Header.Get(headerMessageUUID)
	if id == "" {
		id = watermill.NewUUID()
	}
	msg := message.NewMessage(id, m.Data)
	for k := range m.Header {
		if k == headerMessageUUID {
			continue
		}
		msg.Metadata.Set(k, m.Header.Get(k))
	}
	return msg
}

// Close drains the connection.
func (b *NATSBus) Close() error {
	b.logger.Info("Closing NATS event bus", nil)
	return b.conn.Drain()
}
