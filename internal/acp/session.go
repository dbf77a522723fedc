// Package acp holds the checkout-session data model of the REST commerce
// protocol: sessions, line items, orders, and the order statuses surfaced
// to merchants over webhooks.
package acp

import (
	"time"

	"github.com/google/uuid"
)

// CheckoutStatus is the lifecycle state of a checkout session.
type CheckoutStatus string

const (
	CheckoutStatusCreated   CheckoutStatus = "created"
	CheckoutStatusActive    CheckoutStatus = "active"
	CheckoutStatusCompleted CheckoutStatus = "completed"
	CheckoutStatusCancelled CheckoutStatus = "cancelled"
	CheckoutStatusExpired   CheckoutStatus = "expired"
)

// CheckoutItem is a line of a checkout session. UnitPrice is in minor
// currency units.
type CheckoutItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Quantity  uint32 `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// CheckoutSession is an active shopping session on the ACP side.
type CheckoutSession struct {
	ID         string         `json:"id"`
	Status     CheckoutStatus `json:"status"`
	Amount     int64          `json:"amount"`
	Currency   string         `json:"currency"`
	MerchantID string         `json:"merchant_id"`
	Items      []CheckoutItem `json:"items"`
	CreatedAt  int64          `json:"created_at"`
	ExpiresAt  *int64         `json:"expires_at,omitempty"`
}

// NewCheckoutSession creates an empty session in the created state.
func NewCheckoutSession(merchantID string, amount int64, currency string) *CheckoutSession {
	return &CheckoutSession{
		ID:         "cs_" + uuid.New().String(),
		Status:     CheckoutStatusCreated,
		Amount:     amount,
		Currency:   currency,
		MerchantID: merchantID,
		CreatedAt:  time.Now().UTC().Unix(),
	}
}

// AddItem appends a line item to the session.
func (s *CheckoutSession) AddItem(item CheckoutItem) {
	s.Items = append(s.Items, item)
}

// IsValid reports whether the session can still accept payment.
func (s *CheckoutSession) IsValid() bool {
	switch s.Status {
	case CheckoutStatusCreated, CheckoutStatusActive:
		if s.ExpiresAt != nil {
			return time.Now().UTC().Unix() < *s.ExpiresAt
		}
		return true
	default:
		return false
	}
}

// Order is created when a checkout session completes.
type Order struct {
	ID                string `json:"id"`
	CheckoutSessionID string `json:"checkout_session_id"`
	PermalinkURL      string `json:"permalink_url"`
}

// OrderStatus is the merchant-facing order lifecycle state carried on
// webhook notifications.
type OrderStatus string

const (
	OrderStatusCreated      OrderStatus = "created"
	OrderStatusManualReview OrderStatus = "manual_review"
	OrderStatusConfirmed    OrderStatus = "confirmed"
	OrderStatusCanceled     OrderStatus = "canceled"
	OrderStatusShipped      OrderStatus = "shipped"
	OrderStatusFulfilled    OrderStatus = "fulfilled"
)

// RefundType distinguishes how a refund is returned to the buyer.
type RefundType string

const (
	RefundTypeStoreCredit     RefundType = "store_credit"
	RefundTypeOriginalPayment RefundType = "original_payment"
)

// Refund is a refund line attached to an order webhook.
type Refund struct {
	Type   RefundType `json:"type"`
	Amount int64      `json:"amount"`
}
