package api

import (
	"scenario-engine/internal/policy"
	"scenario-engine/internal/simulation"
	"scenario-engine/pkg/errors"
)

// ScenarioResponse is the API rendering of a ScenarioResult. Money and
// percentages are fixed two-decimal strings.
type ScenarioResponse struct {
	DailyCapacitySessions int64 `json:"daily_capacity_sessions"`
	DailyRealizedSessions int64 `json:"daily_realized_sessions"`

	MonthlyMeteredRevenue      string `json:"monthly_metered_revenue"`
	MonthlySecondaryRevenue    string `json:"monthly_secondary_revenue"`
	MonthlySubscriptionRevenue string `json:"monthly_subscription_revenue"`
	MonthlySponsorshipRevenue  string `json:"monthly_sponsorship_revenue"`
	TotalMonthlyRevenue        string `json:"total_monthly_revenue"`
	FixedMonthlyRevenue        string `json:"fixed_monthly_revenue"`
	VariableMonthlyRevenue     string `json:"variable_monthly_revenue"`

	MonthlyRent         string `json:"monthly_rent"`
	TotalMonthlyExpense string `json:"total_monthly_expense"`

	MonthlyProfit       string `json:"monthly_profit"`
	AnnualProfit        string `json:"annual_profit"`
	ProfitMarginPercent string `json:"profit_margin_percent"`

	BreakEvenUtilizationPercent string            `json:"break_even_utilization_percent"`
	BreakEven                   BreakEvenResponse `json:"break_even"`

	Drivers  []DriverResponse        `json:"drivers"`
	Warnings []*errors.ScenarioError `json:"warnings"`

	// Policy
	PolicyResult     string             `json:"policy_result"`
	PolicyViolations []policy.Violation `json:"policy_violations"`
	PolicyWarnings   []policy.Warning   `json:"policy_warnings"`
}

// BreakEvenResponse carries the unclamped solver output next to the
// clamped percentage.
type BreakEvenResponse struct {
	Percent           string `json:"percent"`
	UnclampedPercent  string `json:"unclamped_percent"`
	Achievable        bool   `json:"achievable"`
	VariablePotential string `json:"variable_potential"`
}

// DriverResponse is a single revenue or expense line
type DriverResponse struct {
	ID             string `json:"id"`
	Kind           string `json:"kind"`
	Classification string `json:"classification"`
	Description    string `json:"description"`
	MonthlyAmount  string `json:"monthly_amount"`
	Formula        string `json:"formula"`
}

// SweepPointResponse is one sample of a sweep
type SweepPointResponse struct {
	UtilizationRate       string `json:"utilization_rate"`
	DailyRealizedSessions int64  `json:"daily_realized_sessions"`
	TotalMonthlyRevenue   string `json:"total_monthly_revenue"`
	TotalMonthlyExpense   string `json:"total_monthly_expense"`
	MonthlyProfit         string `json:"monthly_profit"`
	ProfitMarginPercent   string `json:"profit_margin_percent"`
}

func buildScenarioResponse(r simulation.ScenarioResult, pol *policy.EvaluationResult) ScenarioResponse {
	drivers := make([]DriverResponse, len(r.Drivers))
	for i, d := range r.Drivers {
		drivers[i] = DriverResponse{
			ID:             d.ID,
			Kind:           string(d.Kind),
			Classification: string(d.Classification),
			Description:    d.Description,
			MonthlyAmount:  d.MonthlyAmount.StringFixed(2),
			Formula:        d.Formula,
		}
	}

	return ScenarioResponse{
		DailyCapacitySessions:       r.DailyCapacitySessions,
		DailyRealizedSessions:       r.DailyRealizedSessions,
		MonthlyMeteredRevenue:       r.MonthlyMeteredRevenue.StringFixed(2),
		MonthlySecondaryRevenue:     r.MonthlySecondaryRevenue.StringFixed(2),
		MonthlySubscriptionRevenue:  r.MonthlySubscriptionRevenue.StringFixed(2),
		MonthlySponsorshipRevenue:   r.MonthlySponsorshipRevenue.StringFixed(2),
		TotalMonthlyRevenue:         r.TotalMonthlyRevenue.StringFixed(2),
		FixedMonthlyRevenue:         r.Revenue.Fixed().StringFixed(2),
		VariableMonthlyRevenue:      r.Revenue.Variable().StringFixed(2),
		MonthlyRent:                 r.MonthlyRent.StringFixed(2),
		TotalMonthlyExpense:         r.TotalMonthlyExpense.StringFixed(2),
		MonthlyProfit:               r.MonthlyProfit.StringFixed(2),
		AnnualProfit:                r.AnnualProfit.StringFixed(2),
		ProfitMarginPercent:         r.ProfitMarginPercent.StringFixed(2),
		BreakEvenUtilizationPercent: r.BreakEvenUtilizationPercent.StringFixed(2),
		BreakEven: BreakEvenResponse{
			Percent:           r.BreakEven.Percent.StringFixed(2),
			UnclampedPercent:  r.BreakEven.Unclamped.StringFixed(2),
			Achievable:        r.BreakEven.Achievable,
			VariablePotential: r.BreakEven.VariablePotential.StringFixed(2),
		},
		Drivers:          drivers,
		Warnings:         r.Warnings,
		PolicyResult:     string(pol.Decision),
		PolicyViolations: pol.Violations,
		PolicyWarnings:   pol.Warnings,
	}
}

func buildSweepResponse(points []simulation.SweepPoint) []SweepPointResponse {
	resp := make([]SweepPointResponse, len(points))
	for i, p := range points {
		resp[i] = SweepPointResponse{
			UtilizationRate:       p.UtilizationRate.StringFixed(2),
			DailyRealizedSessions: p.DailyRealizedSessions,
			TotalMonthlyRevenue:   p.TotalMonthlyRevenue.StringFixed(2),
			TotalMonthlyExpense:   p.TotalMonthlyExpense.StringFixed(2),
			MonthlyProfit:         p.MonthlyProfit.StringFixed(2),
			ProfitMarginPercent:   p.ProfitMarginPercent.StringFixed(2),
		}
	}
	return resp
}
