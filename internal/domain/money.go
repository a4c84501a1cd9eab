package domain

import (
	"github.com/shopspring/decimal"
)

// Provider webhooks report amounts as integer cents; orders store decimal
// currency units. AmountTolerance absorbs fractional-cent rounding between
// the two representations.
var AmountTolerance = decimal.New(1, -2) // 0.01

// FromCents converts an integer cent amount to decimal currency units.
func FromCents(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100))
}

// AmountsMatch reports whether the provider-reported amount matches the
// expected charge within AmountTolerance. Anything beyond the tolerance is a
// hard mismatch, never silently accepted.
func AmountsMatch(reported, expected decimal.Decimal) bool {
	return reported.Sub(expected).Abs().LessThanOrEqual(AmountTolerance)
}
