// Package pricing computes the amount a buyer pays for a book.
//
// All amounts are in currency minor units (cents).
package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// FinalPrice applies discountPercent to basePrice. The discount is rounded
// half-up to a whole minor unit and the result never goes below zero.
// Negative inputs are treated as absent; callers validate them upstream.
func FinalPrice(basePrice int64, discountPercent int32) int64 {
	if basePrice <= 0 {
		return 0
	}
	if discountPercent <= 0 {
		return basePrice
	}

	base := decimal.NewFromInt(basePrice)
	discount := base.Mul(decimal.NewFromInt32(discountPercent)).Div(hundred).Round(0)

	payable := base.Sub(discount)
	if payable.IsNegative() {
		return 0
	}
	return payable.IntPart()
}

