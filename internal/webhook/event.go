// Package webhook implements the outbound merchant notification pipeline:
// signed order-lifecycle events, a bounded delivery queue drained by a
// worker pool, exponential-backoff retries, and dead-lettering once retries
// are exhausted.
package webhook

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/AnthonyGillesRudolfo/Agentic-Payment-Gateway/internal/acp"
)

// EventType identifies the kind of order notification.
type EventType string

const (
	EventTypeOrderCreate EventType = "order_create"
	EventTypeOrderUpdate EventType = "order_update"
)

// Event is a single order-lifecycle notification. Events are immutable once
// enqueued; a superseding change to the same checkout session is a new,
// independent event.
type Event struct {
	Type              EventType       `json:"type"`
	CheckoutSessionID string          `json:"checkout_session_id"`
	PermalinkURL      string          `json:"permalink_url"`
	Status            acp.OrderStatus `json:"status"`
	Refunds           []acp.Refund    `json:"refunds"`
	RequestID         string          `json:"request_id"`
	Timestamp         time.Time       `json:"timestamp"`
}

// NewOrderCreate builds an order_create event for a completed checkout.
func NewOrderCreate(checkoutSessionID, permalinkURL string, status acp.OrderStatus) Event {
	return newEvent(EventTypeOrderCreate, checkoutSessionID, permalinkURL, status, nil)
}

// NewOrderUpdate builds an order_update event carrying the new status and
// any refunds issued with it.
func NewOrderUpdate(checkoutSessionID, permalinkURL string, status acp.OrderStatus, refunds []acp.Refund) Event {
	return newEvent(EventTypeOrderUpdate, checkoutSessionID, permalinkURL, status, refunds)
}

func newEvent(t EventType, sessionID, permalink string, status acp.OrderStatus, refunds []acp.Refund) Event {
	return Event{
		Type:              t,
		CheckoutSessionID: sessionID,
		PermalinkURL:      permalink,
		Status:            status,
		Refunds:           refunds,
		RequestID:         uuid.New().String(),
		Timestamp:         time.Now().UTC(),
	}
}

// wireBody is the JSON schema merchants receive.
type wireBody struct {
	Type EventType `json:"type"`
	Data wireOrder `json:"data"`
}

type wireOrder struct {
	Type              string          `json:"type"`
	CheckoutSessionID string          `json:"checkout_session_id"`
	PermalinkURL      string          `json:"permalink_url"`
	Status            acp.OrderStatus `json:"status"`
	Refunds           []acp.Refund    `json:"refunds"`
}

// MarshalWire serializes the event into the merchant-facing webhook body.
func (e Event) MarshalWire() ([]byte, error) {
	refunds := e.Refunds
	if refunds == nil {
		refunds = []acp.Refund{}
	}
	return json.Marshal(wireBody{
		Type: e.Type,
		Data: wireOrder{
			Type:              "order",
			CheckoutSessionID: e.CheckoutSessionID,
			PermalinkURL:      e.PermalinkURL,
			Status:            e.Status,
			Refunds:           refunds,
		},
	})
}

// AttemptResult classifies the outcome of one delivery attempt.
type AttemptResult string

const (
	AttemptSuccess      AttemptResult = "success"
	AttemptHTTPError    AttemptResult = "http_error"
	AttemptNetworkError AttemptResult = "network_error"
)

// Attempt records one delivery attempt. Attempts are appended, never
// rewritten.
type Attempt struct {
	Number     int           `json:"number"`
	Result     AttemptResult `json:"result"`
	StatusCode int           `json:"status_code,omitempty"`
	Error      string        `json:"error,omitempty"`
	At         time.Time     `json:"at"`
}

// DeadLetter is the durable record of an event whose delivery exhausted all
// retries. Its ID is the event's request id.
type DeadLetter struct {
	ID            string    `json:"id"`
	Event         Event     `json:"event"`
	Attempts      int       `json:"attempts"`
	LastResult    string    `json:"last_result"`
	FirstFailedAt time.Time `json:"first_failed_at"`
	RetryAfter    time.Time `json:"retry_after"`
}
