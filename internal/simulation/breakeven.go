package simulation

import (
	"github.com/shopspring/decimal"

	"scenario-engine/pkg/percent"
)

// BreakEven is the inverse-pass result.
//
// Percent is clamped to [0, 100] for display: a break-even point outside the
// normal operating range is reported at the boundary. The clamp is a
// presentation policy; Unclamped and Achievable keep the information it
// discards. Achievable is false when even full utilization cannot cover
// expenses.
type BreakEven struct {
	Percent           decimal.Decimal `json:"percent"`
	Unclamped         decimal.Decimal `json:"unclamped_percent"`
	Achievable        bool            `json:"achievable"`
	VariablePotential decimal.Decimal `json:"variable_revenue_potential"`
	FixedRevenue      decimal.Decimal `json:"fixed_revenue"`
	FixedExpense      decimal.Decimal `json:"fixed_expense"`
}

// SolveBreakEven finds the utilization rate at which revenue equals expense,
// holding every other input fixed.
//
// Variable revenue is linear in utilization and everything else is constant,
// so the solution is closed form:
//
//	potential = capacity × 30 × (priceMetered + priceSecondary) × multiplier
//	rate%     = (expense − fixedRevenue) / potential × 100
//
// The rounding of realized sessions is ignored here; the solver works on the
// continuous line. With no variable revenue potential the rate is 0.
func SolveBreakEven(capacity int64, d DemandInputs, r RevenueInputs, fixedRevenue, totalExpense decimal.Decimal) BreakEven {
	potential := decimal.NewFromInt(capacity).
		Mul(daysPerMonth).
		Mul(variableRevenuePerSession(r)).
		Mul(decimal.NewFromFloat(d.DemandMultiplier))

	be := BreakEven{
		Percent:           decimal.Zero,
		Unclamped:         decimal.Zero,
		VariablePotential: potential,
		FixedRevenue:      fixedRevenue,
		FixedExpense:      totalExpense,
	}
	if potential.Sign() <= 0 {
		be.Achievable = !fixedRevenue.LessThan(totalExpense)
		return be
	}

	be.Unclamped = totalExpense.Sub(fixedRevenue).Div(potential).Mul(percent.Hundred)
	be.Percent = percent.Clamp(be.Unclamped)
	be.Achievable = !be.Unclamped.GreaterThan(percent.Hundred)
	return be
}
