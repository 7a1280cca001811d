package simulation

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"scenario-engine/pkg/errors"
)

// ScenarioResult is the derived projection for one ScenarioInput. It carries
// no timestamps or identifiers so that identical inputs produce identical
// results.
type ScenarioResult struct {
	DailyCapacitySessions int64 `json:"daily_capacity_sessions"`
	DailyRealizedSessions int64 `json:"daily_realized_sessions"`

	MonthlyMeteredRevenue      decimal.Decimal `json:"monthly_metered_revenue"`
	MonthlySecondaryRevenue    decimal.Decimal `json:"monthly_secondary_revenue"`
	MonthlySubscriptionRevenue decimal.Decimal `json:"monthly_subscription_revenue"`
	MonthlySponsorshipRevenue  decimal.Decimal `json:"monthly_sponsorship_revenue"`
	TotalMonthlyRevenue        decimal.Decimal `json:"total_monthly_revenue"`

	MonthlyRent         decimal.Decimal `json:"monthly_rent"`
	TotalMonthlyExpense decimal.Decimal `json:"total_monthly_expense"`

	MonthlyProfit       decimal.Decimal `json:"monthly_profit"`
	AnnualProfit        decimal.Decimal `json:"annual_profit"`
	ProfitMarginPercent decimal.Decimal `json:"profit_margin_percent"`

	BreakEvenUtilizationPercent decimal.Decimal `json:"break_even_utilization_percent"`
	BreakEven                   BreakEven       `json:"break_even"`

	Revenue  Revenue  `json:"revenue_breakdown"`
	Expenses Expenses `json:"expense_breakdown"`

	// Drivers explain every line of the projection, revenue first.
	Drivers []Driver `json:"drivers"`

	// Warnings lists conditions resolved internally (zero cycle time, coerced inputs).
	Warnings []*errors.ScenarioError `json:"warnings"`
}

// HasWarning reports whether a warning with the given code was raised.
func (r ScenarioResult) HasWarning(code string) bool {
	for _, w := range r.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

// ComputeScenario runs the forward and inverse passes over the input. It never
// fails: degenerate inputs resolve to defined numbers and are reported in
// Warnings.
func ComputeScenario(input ScenarioInput) ScenarioResult {
	in, warnings := input.Normalize()

	capacity, err := DailyCapacity(in.CapacityInputs)
	if err != nil {
		if se, ok := errors.AsScenarioError(err); ok {
			warnings = append(warnings, se)
		}
	}
	realized := RealizedSessions(capacity, in.DemandInputs)
	if exact := realizedExact(capacity, in.DemandInputs).Round(0); exact.GreaterThan(maxSessions) {
		warnings = append(warnings, coercion(errors.NewOutOfRangeError("daily_realized_sessions", exact.InexactFloat64(), 0, math.MaxInt64)))
	}

	revenue := AggregateRevenue(realized, in.RevenueInputs)
	expenses := AggregateExpenses(in.ExpenseInputs)
	profit := CalculateProfitability(revenue.Total, expenses.Total)
	breakEven := SolveBreakEven(capacity, in.DemandInputs, in.RevenueInputs, revenue.Fixed(), expenses.Total)

	if warnings == nil {
		warnings = []*errors.ScenarioError{}
	}

	return ScenarioResult{
		DailyCapacitySessions:       capacity,
		DailyRealizedSessions:       realized,
		MonthlyMeteredRevenue:       revenue.Metered,
		MonthlySecondaryRevenue:     revenue.Secondary,
		MonthlySubscriptionRevenue:  revenue.Subscription,
		MonthlySponsorshipRevenue:   revenue.Sponsorship,
		TotalMonthlyRevenue:         revenue.Total,
		MonthlyRent:                 expenses.Rent,
		TotalMonthlyExpense:         expenses.Total,
		MonthlyProfit:               profit.MonthlyProfit,
		AnnualProfit:                profit.AnnualProfit,
		ProfitMarginPercent:         profit.MarginPercent,
		BreakEvenUtilizationPercent: breakEven.Percent,
		BreakEven:                   breakEven,
		Revenue:                     revenue,
		Expenses:                    expenses,
		Drivers:                     buildDrivers(in, realized, revenue, expenses),
		Warnings:                    warnings,
	}
}

// DriverKind separates revenue lines from expense lines.
type DriverKind string

const (
	DriverRevenue DriverKind = "revenue"
	DriverExpense DriverKind = "expense"
)

// Classification is the break-even classification of a line.
type Classification string

const (
	ClassFixed    Classification = "fixed"
	ClassVariable Classification = "variable"
)

// Driver explains a single line of the projection.
type Driver struct {
	ID             string          `json:"id"`
	Kind           DriverKind      `json:"kind"`
	Classification Classification  `json:"classification"`
	Description    string          `json:"description"`
	MonthlyAmount  decimal.Decimal `json:"monthly_amount"`
	Formula        string          `json:"formula"`
}

func buildDrivers(in ScenarioInput, realized int64, r Revenue, e Expenses) []Driver {
	return []Driver{
		{
			ID:             "revenue.metered",
			Kind:           DriverRevenue,
			Classification: ClassVariable,
			Description:    "Metered usage",
			MonthlyAmount:  r.Metered,
			Formula: fmt.Sprintf("%d sessions/day × %s days × %s = %s",
				realized, daysPerMonth, money(decimal.NewFromFloat(in.PriceMetered)), money(r.Metered)),
		},
		{
			ID:             "revenue.secondary",
			Kind:           DriverRevenue,
			Classification: ClassVariable,
			Description:    "Secondary / attach",
			MonthlyAmount:  r.Secondary,
			Formula: fmt.Sprintf("%d sessions/day × %s days × %s = %s",
				realized, daysPerMonth, money(decimal.NewFromFloat(in.PriceSecondaryPerSession)), money(r.Secondary)),
		},
		{
			ID:             "revenue.subscription",
			Kind:           DriverRevenue,
			Classification: ClassFixed,
			Description:    "Subscriptions",
			MonthlyAmount:  r.Subscription,
			Formula: fmt.Sprintf("%d subscribers × %s = %s",
				in.SubscriberCount, money(decimal.NewFromFloat(in.SubscriptionFee)), money(r.Subscription)),
		},
		{
			ID:             "revenue.sponsorship",
			Kind:           DriverRevenue,
			Classification: ClassFixed,
			Description:    "Sponsorships",
			MonthlyAmount:  r.Sponsorship,
			Formula: fmt.Sprintf("%d sponsors × %s = %s",
				in.SponsorCount, money(decimal.NewFromFloat(in.SponsorFee)), money(r.Sponsorship)),
		},
		{
			ID:             "expense.rent",
			Kind:           DriverExpense,
			Classification: ClassFixed,
			Description:    "Space",
			MonthlyAmount:  e.Rent,
			Formula: fmt.Sprintf("%s units × %s/unit/year ÷ %s = %s",
				decimal.NewFromFloat(in.FloorAreaUnits), money(decimal.NewFromFloat(in.AreaCostPerUnitPerYear)), monthsPerYear, money(e.Rent)),
		},
		{
			ID:             "expense.labor",
			Kind:           DriverExpense,
			Classification: ClassFixed,
			Description:    "Labor",
			MonthlyAmount:  e.Labor,
			Formula:        money(e.Labor) + "/month",
		},
		{
			ID:             "expense.utilities",
			Kind:           DriverExpense,
			Classification: ClassFixed,
			Description:    "Utilities",
			MonthlyAmount:  e.Utilities,
			Formula:        money(e.Utilities) + "/month",
		},
	}
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
