package validation

// CartItemRequest is a single line item on an inbound cart mandate. Amounts
// are integer minor units.
type CartItemRequest struct {
	ID         string `json:"id" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Quantity   uint32 `json:"quantity" validate:"required,min=1"`
	UnitPrice  uint64 `json:"unit_price" validate:"required,gt=0"`
	TotalPrice uint64 `json:"total_price" validate:"required,gt=0"`
}

// CartMandateRequest is the payload submitted by an agent to create a cart
// mandate.
type CartMandateRequest struct {
	Issuer      string                 `json:"issuer" validate:"required"`
	MerchantID  string                 `json:"merchant_id" validate:"required"`
	Items       []CartItemRequest      `json:"items" validate:"required,min=1,dive"`
	TotalAmount uint64                 `json:"total_amount" validate:"required,gt=0"` // total the agent claims
	Currency    string                 `json:"currency" validate:"required,iso4217"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// CheckoutItemRequest is a single line item on an inbound checkout session.
type CheckoutItemRequest struct {
	ID        string `json:"id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Quantity  uint32 `json:"quantity" validate:"required,min=1"`
	UnitPrice int64  `json:"unit_price" validate:"required,gt=0"`
}

// CheckoutSessionRequest is the payload for POST /checkout_sessions.
type CheckoutSessionRequest struct {
	MerchantID string                `json:"merchant_id" validate:"required"`
	Items      []CheckoutItemRequest `json:"items" validate:"required,min=1,dive"`
	Amount     int64                 `json:"amount" validate:"required,gt=0"` // total the caller claims
	Currency   string                `json:"currency" validate:"required,iso4217"`
}
