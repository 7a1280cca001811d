package simulation

import (
	"math"

	"github.com/shopspring/decimal"

	"scenario-engine/pkg/percent"
)

// RealizedSessions applies the utilization rate (percent) and demand
// multiplier to capacity and rounds half-up to whole sessions.
//
// The result is NOT clamped to capacity. A multiplier above 1 combined with a
// high utilization rate can exceed nominal capacity, which models boosted
// throughput. Whether that is intended product behavior is an open question;
// the policy engine flags it as a warning instead of changing the number.
// Counts beyond int64 are capped at math.MaxInt64.
func RealizedSessions(capacity int64, d DemandInputs) int64 {
	exact := realizedExact(capacity, d).Round(0)
	if exact.GreaterThan(maxSessions) {
		return math.MaxInt64
	}
	return exact.IntPart()
}

func realizedExact(capacity int64, d DemandInputs) decimal.Decimal {
	rate := percent.Fraction(decimal.NewFromFloat(d.UtilizationRate))
	return decimal.NewFromInt(capacity).
		Mul(rate).
		Mul(decimal.NewFromFloat(d.DemandMultiplier))
}
