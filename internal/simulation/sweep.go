package simulation

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MaxSweepPoints bounds a single sweep.
const MaxSweepPoints = 1001

// SweepPoint is one sample of a utilization sweep.
type SweepPoint struct {
	UtilizationRate       decimal.Decimal `json:"utilization_rate"`
	DailyRealizedSessions int64           `json:"daily_realized_sessions"`
	TotalMonthlyRevenue   decimal.Decimal `json:"total_monthly_revenue"`
	TotalMonthlyExpense   decimal.Decimal `json:"total_monthly_expense"`
	MonthlyProfit         decimal.Decimal `json:"monthly_profit"`
	ProfitMarginPercent   decimal.Decimal `json:"profit_margin_percent"`
}

// Sweep recomputes the scenario for every utilization rate from..to (inclusive)
// in increments of step, holding all other inputs fixed.
func Sweep(input ScenarioInput, from, to, step float64) ([]SweepPoint, error) {
	if nonFinite(from) || nonFinite(to) || nonFinite(step) {
		return nil, fmt.Errorf("sweep bounds must be finite, got from=%g to=%g step=%g", from, to, step)
	}
	if step <= 0 {
		return nil, fmt.Errorf("sweep step must be positive, got %g", step)
	}
	if from > to {
		return nil, fmt.Errorf("sweep start %g is after end %g", from, to)
	}

	start := decimal.NewFromFloat(from)
	inc := decimal.NewFromFloat(step)
	// Compare before IntPart: the quotient can exceed int64 for tiny steps.
	intervals := decimal.NewFromFloat(to).Sub(start).Div(inc).Floor()
	if intervals.GreaterThanOrEqual(decimal.NewFromInt(MaxSweepPoints)) {
		return nil, fmt.Errorf("sweep would produce more than %d points", MaxSweepPoints)
	}
	n := intervals.IntPart() + 1

	points := make([]SweepPoint, 0, n)
	for i := int64(0); i < n; i++ {
		rate := start.Add(inc.Mul(decimal.NewFromInt(i)))
		in := input
		in.UtilizationRate = rate.InexactFloat64()

		res := ComputeScenario(in)
		points = append(points, SweepPoint{
			UtilizationRate:       rate,
			DailyRealizedSessions: res.DailyRealizedSessions,
			TotalMonthlyRevenue:   res.TotalMonthlyRevenue,
			TotalMonthlyExpense:   res.TotalMonthlyExpense,
			MonthlyProfit:         res.MonthlyProfit,
			ProfitMarginPercent:   res.ProfitMarginPercent,
		})
	}
	return points, nil
}
