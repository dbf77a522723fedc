package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/AnthonyGillesRudolfo/Agentic-Payment-Gateway/internal/webhook"
)

type Producer struct {
	w     *kafka.Writer
	topic string
}

// NewProducer builds a producer against the given brokers, publishing audit
// events to the given topic.
func NewProducer(brokers []string, topic string) *Producer {
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}
	if topic == "" {
		topic = "webhook.delivery"
	}
	return &Producer{
		w: kafka.NewWriter(kafka.WriterConfig{
			Brokers:  brokers,
			Balancer: &kafka.Hash{}, // partition by Kafka message key
		}),
		topic: topic,
	}
}

func (p *Producer) Close() error { return p.w.Close() }

// Envelope is the standard event schema the gateway publishes.
// Keep it small and stable.
type Envelope struct {
	EventType    string      `json:"eventType"`
	EventVersion string      `json:"eventVersion"`
	OccurredAt   time.Time   `json:"occurredAt"`
	AggregateID  string      `json:"aggregateId"` // e.g., checkout session id
	Data         interface{} `json:"data"`
}

// Publish writes a single message to Kafka.
// 'key' is the Kafka partition key (use the checkout session id to keep
// per-session ordering on the audit stream).
func (p *Producer) Publish(ctx context.Context, topic, key string, evt Envelope) error {
	evt.OccurredAt = time.Now().UTC()
	val, _ := json.Marshal(evt)
	return p.w.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: val,
	})
}

type deliveryAudit struct {
	RequestID         string `json:"request_id"`
	CheckoutSessionID string `json:"checkout_session_id"`
	EventType         string `json:"event_type"`
	Attempts          int    `json:"attempts"`
	LastResult        string `json:"last_result,omitempty"`
}

// PublishDelivered records a successful webhook delivery on the audit topic.
func (p *Producer) PublishDelivered(ctx context.Context, e webhook.Event, attempts int) error {
	return p.Publish(ctx, p.topic, e.CheckoutSessionID, Envelope{
		EventType:    "webhook.delivered",
		EventVersion: "v1",
		AggregateID:  e.CheckoutSessionID,
		Data: deliveryAudit{
			RequestID:         e.RequestID,
			CheckoutSessionID: e.CheckoutSessionID,
			EventType:         string(e.Type),
			Attempts:          attempts,
		},
	})
}

// PublishDeadLettered records an exhausted delivery on the audit topic.
func (p *Producer) PublishDeadLettered(ctx context.Context, e webhook.Event, attempts int, lastResult string) error {
	return p.Publish(ctx, p.topic, e.CheckoutSessionID, Envelope{
		EventType:    "webhook.dead_lettered",
		EventVersion: "v1",
		AggregateID:  e.CheckoutSessionID,
		Data: deliveryAudit{
			RequestID:         e.RequestID,
			CheckoutSessionID: e.CheckoutSessionID,
			EventType:         string(e.Type),
			Attempts:          attempts,
			LastResult:        lastResult,
		},
	})
}
