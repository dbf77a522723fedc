package acp

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewCheckoutSession(t *testing.T) {
	s := NewCheckoutSession("merchant_abc", 4498, "USD")

	assert.True(t, strings.HasPrefix(s.ID, "cs_"))
	assert.Equal(t, CheckoutStatusCreated, s.Status)
	assert.Equal(t, "merchant_abc", s.MerchantID)
	assert.Equal(t, int64(4498), s.Amount)
	assert.NotZero(t, s.CreatedAt)
	assert.Nil(t, s.ExpiresAt)
}

func TestCheckoutSessionAddItem(t *testing.T) {
	s := NewCheckoutSession("merchant_abc", 4498, "USD")
	s.AddItem(CheckoutItem{ID: "item-1", Name: "Widget", Quantity: 2, UnitPrice: 1999})
	s.AddItem(CheckoutItem{ID: "item-2", Name: "Gadget", Quantity: 1, UnitPrice: 500})

	assert.Len(t, s.Items, 2)
}

func TestCheckoutSessionIsValid(t *testing.T) {
	s := NewCheckoutSession("merchant_abc", 100, "USD")
	assert.True(t, s.IsValid())

	s.Status = CheckoutStatusActive
	assert.True(t, s.IsValid())

	past := time.Now().UTC().Add(-time.Hour).Unix()
	s.ExpiresAt = &past
	assert.False(t, s.IsValid(), "expired sessions cannot accept payment")

	future := time.Now().UTC().Add(time.Hour).Unix()
	s.ExpiresAt = &future
	assert.True(t, s.IsValid())

	for _, status := range []CheckoutStatus{CheckoutStatusCompleted, CheckoutStatusCancelled, CheckoutStatusExpired} {
		s.Status = status
		assert.False(t, s.IsValid(), "status %s cannot accept payment", status)
	}
}
