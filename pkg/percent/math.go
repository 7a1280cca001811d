// Package percent provides percentage math over decimal values.
package percent

import "github.com/shopspring/decimal"

var (
	// Hundred is 100%.
	Hundred = decimal.NewFromInt(100)
	// Zero is 0%.
	Zero = decimal.Zero
)

// Of returns part/whole expressed in percent.
// A zero or negative whole yields 0 rather than a division error.
func Of(part, whole decimal.Decimal) decimal.Decimal {
	if whole.Sign() <= 0 {
		return decimal.Zero
	}
	return part.Div(whole).Mul(Hundred)
}

// Fraction converts a percent to its 0..1 fraction.
func Fraction(p decimal.Decimal) decimal.Decimal {
	return p.Div(Hundred)
}

// Clamp ensures a percentage is in the range [0, 100].
func Clamp(p decimal.Decimal) decimal.Decimal {
	if p.LessThan(Zero) {
		return Zero
	}
	if p.GreaterThan(Hundred) {
		return Hundred
	}
	return p
}

// InRange reports whether p lies within [0, 100].
func InRange(p decimal.Decimal) bool {
	return !p.LessThan(Zero) && !p.GreaterThan(Hundred)
}
