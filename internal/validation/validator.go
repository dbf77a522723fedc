package validation

import (
	"fmt"

	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// register struct-level validation to ensure the claimed total matches
	// the sum of the line items.
	v.RegisterStructValidation(cartMandateStructValidation, CartMandateRequest{})
	v.RegisterStructValidation(checkoutSessionStructValidation, CheckoutSessionRequest{})

	return v
}

// cartMandateStructValidation verifies total_amount equals the sum of item
// total prices and that each line's total matches quantity * unit_price.
// Amounts are integer minor units, so the comparison is exact.
func cartMandateStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(CartMandateRequest)

	var sum uint64
	for _, it := range req.Items {
		if it.TotalPrice != uint64(it.Quantity)*it.UnitPrice {
			sl.ReportError(it.TotalPrice, "items", "Items", "item_total_match",
				fmt.Sprintf("item %s total %d != %d * %d", it.ID, it.TotalPrice, it.Quantity, it.UnitPrice))
		}
		sum += it.TotalPrice
	}
	if sum != req.TotalAmount {
		sl.ReportError(req.TotalAmount, "total_amount", "TotalAmount", "amount_match_items",
			fmt.Sprintf("items sum %d != total_amount %d", sum, req.TotalAmount))
	}
}

// checkoutSessionStructValidation verifies amount equals the sum of
// quantity * unit_price over the line items.
func checkoutSessionStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(CheckoutSessionRequest)

	var sum int64
	for _, it := range req.Items {
		sum += int64(it.Quantity) * it.UnitPrice
	}
	if sum != req.Amount {
		sl.ReportError(req.Amount, "amount", "Amount", "amount_match_items",
			fmt.Sprintf("items sum %d != amount %d", sum, req.Amount))
	}
}
