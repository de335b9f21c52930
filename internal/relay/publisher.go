package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"academy-chat/internal/models"
	"academy-chat/internal/observability"
)

// PresenceTopic is the global presence channel.
const PresenceTopic = "presence.global"

// RoomTopic derives the routing key for a room's message feed.
func RoomTopic(room string) string {
	return "chat." + room
}

// ConversationTopic derives the routing key for one conversation's DM feed.
func ConversationTopic(conversationID int) string {
	return fmt.Sprintf("dm.%d", conversationID)
}

// Envelope wraps an event published to the relay.
type Envelope struct {
	SchemaVersion int                `json:"schema_version"`
	OccurredAt    string             `json:"occurred_at"`
	Service       string             `json:"service"`
	Event         models.StreamEvent `json:"event"`
}

// Wrap builds a relay envelope around a stream event.
func Wrap(event models.StreamEvent) Envelope {
	return Envelope{
		SchemaVersion: 1,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       "academy-chat",
		Event:         event,
	}
}

// Publisher publishes stored messages to the relay so subscribers outside
// this process receive them. The relay is a latency optimization: a failed
// publish is logged, never surfaced, because history fetch remains the
// safety net.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event Envelope) error
	Close() error
}

// NewPublisher builds a RabbitMQ publisher or a noop publisher when AMQP is
// disabled or unreachable.
func NewPublisher(amqpURL, exchange string) Publisher {
	if amqpURL == "" {
		log.Printf("relay disabled, using noop: empty amqp url")
		return noopPublisher{reason: "empty amqp url"}
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		log.Printf("relay disabled, using noop: %v", err)
		return noopPublisher{reason: err.Error()}
	}

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("relay disabled, using noop: %v", err)
		_ = conn.Close()
		return noopPublisher{reason: err.Error()}
	}

	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		log.Printf("relay disabled, using noop: %v", err)
		_ = ch.Close()
		_ = conn.Close()
		return noopPublisher{reason: err.Error()}
	}

	log.Printf("relay connected exchange=%s", exchange)
	return &amqpPublisher{conn: conn, ch: ch, exchange: exchange}
}

type amqpPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func (p *amqpPublisher) Publish(ctx context.Context, routingKey string, event Envelope) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		observability.IncRelayPublishError()
		log.Printf("relay publish failed routing_key=%s: %v", routingKey, err)
	}
	return err
}

func (p *amqpPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

type noopPublisher struct {
	reason string
}

func (noopPublisher) Publish(ctx context.Context, routingKey string, event Envelope) error {
	log.Printf("relay noop publish routing_key=%s event_type=%s", routingKey, event.Event.Type)
	return nil
}

func (noopPublisher) Close() error {
	return nil
}

// PublisherMode reports the publisher mode for startup logging.
func PublisherMode(p Publisher) string {
	switch p.(type) {
	case *amqpPublisher:
		return "amqp"
	case noopPublisher, *noopPublisher:
		return "noop"
	default:
		return "unknown"
	}
}
