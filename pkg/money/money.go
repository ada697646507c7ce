// Package money holds the shared cents arithmetic and display helpers.
// All persisted amounts are integer cents; decimals appear only at the
// presentation edge.
package money

import "github.com/shopspring/decimal"

var centsPerUnit = decimal.NewFromInt(100)

// FromCents converts integer cents to a decimal amount in currency units.
func FromCents(cents int) decimal.Decimal {
	return decimal.NewFromInt(int64(cents)).Div(centsPerUnit)
}

// Format renders cents as a fixed two-decimal string, e.g. 1050 -> "10.50".
func Format(cents int) string {
	return FromCents(cents).StringFixed(2)
}

// LineTotal multiplies a unit price by a quantity, both in cents-domain.
func LineTotal(unitPriceCents, quantity int) int {
	return unitPriceCents * quantity
}

// Shortfall returns how many cents subtotal is short of threshold, or zero.
func Shortfall(subtotalCents, thresholdCents int) int {
	if subtotalCents >= thresholdCents {
		return 0
	}
	return thresholdCents - subtotalCents
}
