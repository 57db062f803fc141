package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/fjod/go_storefront/internal/domain"
)

const DefaultTopic = "orders-placed"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OrderPublisher writes order events to Kafka keyed by order id, so events
// of one order stay on one partition.
type OrderPublisher struct {
	writer messageWriter
	log    *slog.Logger
}

func NewOrderPublisher(topic string, log *slog.Logger, brokers ...string) *OrderPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
	}
	return newWithWriter(w, log)
}

func newWithWriter(w messageWriter, log *slog.Logger) *OrderPublisher {
	if log == nil {
		log = slog.Default()
	}
	return &OrderPublisher{writer: w, log: log}
}

func (p *OrderPublisher) PublishOrderPlaced(ctx context.Context, event domain.OrderPlaced) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}
	return p.Send(ctx, event.OrderID, domain.EventOrderPlaced, payload)
}

// Send writes an already encoded event. The outbox relay uses it to forward
// stored payloads unchanged.
func (p *OrderPublisher) Send(ctx context.Context, key, eventType string, payload []byte) error {
	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write order event: %w", err)
	}

	p.log.DebugContext(ctx, "order event published", slog.String("key", key), slog.String("event_type", eventType))
	return nil
}

func (p *OrderPublisher) Close() error {
	return p.writer.Close()
}
