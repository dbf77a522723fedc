package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validCartMandate() CartMandateRequest {
	return CartMandateRequest{
		Issuer:     "did:example:agent-1",
		MerchantID: "merchant_abc",
		Items: []CartItemRequest{
			{ID: "item-1", Name: "Widget", Quantity: 2, UnitPrice: 1999, TotalPrice: 3998},
		},
		TotalAmount: 3998,
		Currency:    "USD",
	}
}

func validCheckoutSession() CheckoutSessionRequest {
	return CheckoutSessionRequest{
		MerchantID: "merchant_abc",
		Items: []CheckoutItemRequest{
			{ID: "item-1", Name: "Widget", Quantity: 2, UnitPrice: 1999},
		},
		Amount:   3998,
		Currency: "USD",
	}
}

func TestCartMandateRequestValid(t *testing.T) {
	assert.NoError(t, New().Struct(validCartMandate()))
}

func TestCartMandateRequestTotalMismatch(t *testing.T) {
	req := validCartMandate()
	req.TotalAmount = 4000

	assert.Error(t, New().Struct(req))
}

func TestCartMandateRequestItemTotalMismatch(t *testing.T) {
	req := validCartMandate()
	req.Items[0].TotalPrice = 1999
	req.TotalAmount = 1999

	assert.Error(t, New().Struct(req))
}

func TestCartMandateRequestMissingFields(t *testing.T) {
	v := New()

	req := validCartMandate()
	req.Issuer = ""
	assert.Error(t, v.Struct(req))

	req = validCartMandate()
	req.Items = nil
	assert.Error(t, v.Struct(req))

	req = validCartMandate()
	req.Currency = "dollars"
	assert.Error(t, v.Struct(req), "currency must be ISO-4217")
}

func TestCheckoutSessionRequestValid(t *testing.T) {
	assert.NoError(t, New().Struct(validCheckoutSession()))
}

func TestCheckoutSessionRequestAmountMismatch(t *testing.T) {
	req := validCheckoutSession()
	req.Amount = 100

	assert.Error(t, New().Struct(req))
}

func TestCheckoutSessionRequestZeroQuantity(t *testing.T) {
	req := validCheckoutSession()
	req.Items[0].Quantity = 0
	req.Amount = 0

	assert.Error(t, New().Struct(req))
}
