// Package ap2 holds the agent-mandate data model: the three-tier
// Intent, Cart, and Payment mandates that authorize agent purchases.
package ap2

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MandateStatus is the lifecycle state of any mandate.
type MandateStatus string

const (
	MandateStatusPending   MandateStatus = "pending"
	MandateStatusActive    MandateStatus = "active"
	MandateStatusCompleted MandateStatus = "completed"
	MandateStatusCancelled MandateStatus = "cancelled"
	MandateStatusExpired   MandateStatus = "expired"
)

// CartItem is a single line of an itemized cart mandate. Amounts are in
// minor currency units (cents).
type CartItem struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Quantity   uint32            `json:"quantity"`
	UnitPrice  uint64            `json:"unit_price"`
	TotalPrice uint64            `json:"total_price"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// NewCartItem builds an item with its total derived from quantity and price.
func NewCartItem(id, name string, quantity uint32, unitPrice uint64) CartItem {
	return CartItem{
		ID:         id,
		Name:       name,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		TotalPrice: unitPrice * uint64(quantity),
	}
}

// CartMandate is an explicit purchase authorization for an itemized cart,
// issued by a user DID to a merchant.
type CartMandate struct {
	ID             string            `json:"id"`
	Issuer         string            `json:"issuer"`
	Merchant       string            `json:"merchant"`
	Items          []CartItem        `json:"items"`
	TotalAmount    uint64            `json:"total_amount"`
	Currency       string            `json:"currency"`
	TaxAmount      uint64            `json:"tax_amount,omitempty"`
	ShippingAmount uint64            `json:"shipping_amount,omitempty"`
	DiscountAmount uint64            `json:"discount_amount,omitempty"`
	Status         MandateStatus     `json:"status"`
	CreatedAt      time.Time         `json:"created_at"`
	ExpiresAt      *time.Time        `json:"expires_at,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// NewCartMandate creates an active cart mandate with a one hour expiry.
func NewCartMandate(issuer string, items []CartItem, totalAmount uint64, currency string) *CartMandate {
	expires := time.Now().UTC().Add(time.Hour)
	return &CartMandate{
		ID:          "cart:" + uuid.New().String(),
		Issuer:      issuer,
		Items:       items,
		TotalAmount: totalAmount,
		Currency:    currency,
		Status:      MandateStatusActive,
		CreatedAt:   time.Now().UTC(),
		ExpiresAt:   &expires,
	}
}

// CalculateTotal sums item totals plus tax and shipping minus discount.
func (m *CartMandate) CalculateTotal() uint64 {
	var items uint64
	for _, it := range m.Items {
		items += it.TotalPrice
	}
	return items + m.TaxAmount + m.ShippingAmount - m.DiscountAmount
}

// VerifyTotal reports whether the declared total matches the item sum.
func (m *CartMandate) VerifyTotal() bool {
	return m.CalculateTotal() == m.TotalAmount
}

// IsValid reports whether the mandate is active and unexpired.
func (m *CartMandate) IsValid() bool {
	if m.Status != MandateStatusActive {
		return false
	}
	if m.ExpiresAt != nil && time.Now().After(*m.ExpiresAt) {
		return false
	}
	return true
}

// Complete marks the mandate completed.
func (m *CartMandate) Complete() { m.Status = MandateStatusCompleted }

// Cancel marks the mandate cancelled.
func (m *CartMandate) Cancel() { m.Status = MandateStatusCancelled }

// Permission grants an agent a specific action on a resource.
type Permission struct {
	Action     string   `json:"action"`
	Resource   string   `json:"resource"`
	Conditions []string `json:"conditions,omitempty"`
}

// IntentMandate authorizes an agent to act on a user's behalf within the
// stated permissions and constraints.
type IntentMandate struct {
	ID           string                 `json:"id"`
	Issuer       string                 `json:"issuer"`
	SubjectAgent string                 `json:"subject_agent"`
	Description  string                 `json:"description"`
	Permissions  []Permission           `json:"permissions,omitempty"`
	Constraints  map[string]interface{} `json:"constraints,omitempty"`
	Status       MandateStatus          `json:"status"`
	CreatedAt    time.Time              `json:"created_at"`
	ExpiresAt    *time.Time             `json:"expires_at,omitempty"`
}

// NewIntentMandate creates an active intent mandate with a 24 hour expiry.
func NewIntentMandate(issuer, subjectAgent, description string) *IntentMandate {
	expires := time.Now().UTC().Add(24 * time.Hour)
	return &IntentMandate{
		ID:           "intent:" + uuid.New().String(),
		Issuer:       issuer,
		SubjectAgent: subjectAgent,
		Description:  description,
		Constraints:  map[string]interface{}{},
		Status:       MandateStatusActive,
		CreatedAt:    time.Now().UTC(),
		ExpiresAt:    &expires,
	}
}

// HasPermission reports whether the mandate grants action on resource.
func (m *IntentMandate) HasPermission(action, resource string) bool {
	for _, p := range m.Permissions {
		if p.Action == action && p.Resource == resource {
			return true
		}
	}
	return false
}

// PaymentMandate signals the actual transaction to the payment network.
type PaymentMandate struct {
	ID            string        `json:"id"`
	Issuer        string        `json:"issuer"`
	Recipient     string        `json:"recipient"`
	Amount        uint64        `json:"amount"`
	Currency      string        `json:"currency"`
	PaymentMethod string        `json:"payment_method"`
	Reference     string        `json:"reference,omitempty"`
	CartMandateID string        `json:"cart_mandate_id,omitempty"`
	Status        MandateStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	ExpiresAt     *time.Time    `json:"expires_at,omitempty"`
}

// NewPaymentMandate creates a pending payment mandate with a 30 minute expiry.
func NewPaymentMandate(issuer, recipient string, amount uint64, currency, paymentMethod string) *PaymentMandate {
	expires := time.Now().UTC().Add(30 * time.Minute)
	return &PaymentMandate{
		ID:            "payment:" + uuid.New().String(),
		Issuer:        issuer,
		Recipient:     recipient,
		Amount:        amount,
		Currency:      currency,
		PaymentMethod: paymentMethod,
		Status:        MandateStatusPending,
		CreatedAt:     time.Now().UTC(),
		ExpiresAt:     &expires,
	}
}

// Activate moves a pending payment mandate to active.
func (m *PaymentMandate) Activate() { m.Status = MandateStatusActive }

// Complete marks the payment mandate completed.
func (m *PaymentMandate) Complete() { m.Status = MandateStatusCompleted }

// ValidateMandateAmount checks a payment amount against the cart it settles.
func ValidateMandateAmount(payment *PaymentMandate, cart *CartMandate) error {
	if payment.CartMandateID != "" && payment.CartMandateID != cart.ID {
		return fmt.Errorf("payment mandate %s references cart %s, not %s", payment.ID, payment.CartMandateID, cart.ID)
	}
	if payment.Amount != cart.TotalAmount {
		return fmt.Errorf("payment amount %d does not match cart total %d", payment.Amount, cart.TotalAmount)
	}
	return nil
}
