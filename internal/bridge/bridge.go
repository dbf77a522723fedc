// Package bridge translates between the AP2 mandate model and the ACP
// checkout-session model. Conversions are pure functions: no I/O, no shared
// state, and no persistence of converted copies. Converted ids and
// timestamps are regenerated on every call; monetary amounts, currency,
// items, and lifecycle status are preserved exactly.
package bridge

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/AnthonyGillesRudolfo/Agentic-Payment-Gateway/internal/acp"
	"github.com/AnthonyGillesRudolfo/Agentic-Payment-Gateway/internal/ap2"
)

// ConversionError reports a malformed or missing field encountered during a
// mapping. It is returned synchronously so callers can reject the input
// before any state changes.
type ConversionError struct {
	Field  string
	Reason string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("bridge conversion failed: %s: %s", e.Field, e.Reason)
}

// MandateStatusToCheckout maps an AP2 mandate status onto the ACP checkout
// status. The mapping is a total bijection with CheckoutStatusToMandate.
func MandateStatusToCheckout(s ap2.MandateStatus) (acp.CheckoutStatus, error) {
	switch s {
	case ap2.MandateStatusPending:
		return acp.CheckoutStatusCreated, nil
	case ap2.MandateStatusActive:
		return acp.CheckoutStatusActive, nil
	case ap2.MandateStatusCompleted:
		return acp.CheckoutStatusCompleted, nil
	case ap2.MandateStatusCancelled:
		return acp.CheckoutStatusCancelled, nil
	case ap2.MandateStatusExpired:
		return acp.CheckoutStatusExpired, nil
	default:
		return "", &ConversionError{Field: "status", Reason: fmt.Sprintf("unknown mandate status %q", s)}
	}
}

// CheckoutStatusToMandate is the inverse of MandateStatusToCheckout.
func CheckoutStatusToMandate(s acp.CheckoutStatus) (ap2.MandateStatus, error) {
	switch s {
	case acp.CheckoutStatusCreated:
		return ap2.MandateStatusPending, nil
	case acp.CheckoutStatusActive:
		return ap2.MandateStatusActive, nil
	case acp.CheckoutStatusCompleted:
		return ap2.MandateStatusCompleted, nil
	case acp.CheckoutStatusCancelled:
		return ap2.MandateStatusCancelled, nil
	case acp.CheckoutStatusExpired:
		return ap2.MandateStatusExpired, nil
	default:
		return "", &ConversionError{Field: "status", Reason: fmt.Sprintf("unknown checkout status %q", s)}
	}
}

// CartMandateToCheckout converts an AP2 cart mandate into an ACP checkout
// session. A fresh session id is generated; the mandate's items, amounts,
// currency, and status carry over.
func CartMandateToCheckout(cart *ap2.CartMandate) (*acp.CheckoutSession, error) {
	if cart == nil {
		return nil, &ConversionError{Field: "mandate", Reason: "nil cart mandate"}
	}
	if cart.Currency == "" {
		return nil, &ConversionError{Field: "currency", Reason: "missing"}
	}
	if !cart.VerifyTotal() {
		return nil, &ConversionError{Field: "total_amount", Reason: "does not equal item sum"}
	}
	// The AP2 side carries unsigned amounts; reject anything that cannot be
	// represented as a signed 64-bit amount instead of truncating.
	if cart.TotalAmount > math.MaxInt64 {
		return nil, &ConversionError{Field: "total_amount", Reason: "exceeds signed amount range"}
	}

	status, err := MandateStatusToCheckout(cart.Status)
	if err != nil {
		return nil, err
	}

	items := make([]acp.CheckoutItem, 0, len(cart.Items))
	for _, it := range cart.Items {
		if it.UnitPrice > math.MaxInt64 {
			return nil, &ConversionError{Field: "items.unit_price", Reason: "exceeds signed amount range"}
		}
		items = append(items, acp.CheckoutItem{
			ID:        it.ID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: int64(it.UnitPrice),
		})
	}

	session := &acp.CheckoutSession{
		ID:         "cs_from_cart_" + uuid.New().String(),
		Status:     status,
		Amount:     int64(cart.TotalAmount),
		Currency:   cart.Currency,
		MerchantID: cart.Merchant,
		Items:      items,
		CreatedAt:  time.Now().UTC().Unix(),
	}
	if cart.ExpiresAt != nil {
		exp := cart.ExpiresAt.Unix()
		session.ExpiresAt = &exp
	}
	return session, nil
}

// CheckoutToCartMandate converts an ACP checkout session back into an AP2
// cart mandate issued by issuerDID. The inverse of CartMandateToCheckout up
// to regenerated ids and timestamps.
func CheckoutToCartMandate(session *acp.CheckoutSession, issuerDID string) (*ap2.CartMandate, error) {
	if session == nil {
		return nil, &ConversionError{Field: "session", Reason: "nil checkout session"}
	}
	if issuerDID == "" {
		return nil, &ConversionError{Field: "issuer", Reason: "missing"}
	}
	if session.Currency == "" {
		return nil, &ConversionError{Field: "currency", Reason: "missing"}
	}
	if session.Amount < 0 {
		return nil, &ConversionError{Field: "amount", Reason: "negative"}
	}

	status, err := CheckoutStatusToMandate(session.Status)
	if err != nil {
		return nil, err
	}

	items := make([]ap2.CartItem, 0, len(session.Items))
	for _, it := range session.Items {
		if it.UnitPrice < 0 {
			return nil, &ConversionError{Field: "items.unit_price", Reason: "negative"}
		}
		items = append(items, ap2.NewCartItem(it.ID, it.Name, it.Quantity, uint64(it.UnitPrice)))
	}

	cart := &ap2.CartMandate{
		ID:          "cart_from_cs_" + uuid.New().String(),
		Issuer:      issuerDID,
		Merchant:    session.MerchantID,
		Items:       items,
		TotalAmount: uint64(session.Amount),
		Currency:    session.Currency,
		Status:      status,
		CreatedAt:   time.Now().UTC(),
	}
	if session.ExpiresAt != nil {
		exp := time.Unix(*session.ExpiresAt, 0).UTC()
		cart.ExpiresAt = &exp
	}
	return cart, nil
}

// IntentToAllowance serializes an AP2 intent mandate as an ACP-style
// allowance record for audit and logging. One-way; no inverse exists.
func IntentToAllowance(intent *ap2.IntentMandate) (json.RawMessage, error) {
	if intent == nil {
		return nil, &ConversionError{Field: "intent", Reason: "nil intent mandate"}
	}
	record := map[string]interface{}{
		"type":          "intent_allowance",
		"issuer":        intent.Issuer,
		"subject_agent": intent.SubjectAgent,
		"description":   intent.Description,
		"permissions":   intent.Permissions,
		"constraints":   intent.Constraints,
	}
	if intent.ExpiresAt != nil {
		record["expires_at"] = intent.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return json.Marshal(record)
}

// PaymentMandateToDelegate serializes an AP2 payment mandate as an ACP
// delegated-payment record. One-way, like IntentToAllowance.
func PaymentMandateToDelegate(payment *ap2.PaymentMandate) (json.RawMessage, error) {
	if payment == nil {
		return nil, &ConversionError{Field: "payment", Reason: "nil payment mandate"}
	}
	record := map[string]interface{}{
		"type":            "payment_delegate",
		"issuer":          payment.Issuer,
		"recipient":       payment.Recipient,
		"amount":          payment.Amount,
		"currency":        payment.Currency,
		"payment_method":  payment.PaymentMethod,
		"reference":       payment.Reference,
		"cart_mandate_id": payment.CartMandateID,
		"created_at":      payment.CreatedAt.Unix(),
	}
	if payment.ExpiresAt != nil {
		record["expires_at"] = payment.ExpiresAt.Unix()
	}
	return json.Marshal(record)
}
