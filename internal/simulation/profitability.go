package simulation

import (
	"github.com/shopspring/decimal"

	"scenario-engine/pkg/percent"
)

// Profitability is the forward-pass summary.
type Profitability struct {
	MonthlyProfit decimal.Decimal `json:"monthly_profit"`
	AnnualProfit  decimal.Decimal `json:"annual_profit"`
	MarginPercent decimal.Decimal `json:"margin_percent"`
}

// CalculateProfitability combines revenue and expense totals. Negative profit
// is a valid result. With no revenue the margin is 0, never NaN.
func CalculateProfitability(totalRevenue, totalExpense decimal.Decimal) Profitability {
	profit := totalRevenue.Sub(totalExpense)
	return Profitability{
		MonthlyProfit: profit,
		AnnualProfit:  profit.Mul(monthsPerYear),
		MarginPercent: percent.Of(profit, totalRevenue),
	}
}
