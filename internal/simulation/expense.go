package simulation

import (
	"github.com/shopspring/decimal"

	"scenario-engine/pkg/units"
)

var monthsPerYear = decimal.NewFromInt(units.MonthsPerYear)

// Expenses holds the monthly cost terms. Every term is fixed with respect to
// session volume.
type Expenses struct {
	Rent      decimal.Decimal `json:"rent"`
	Labor     decimal.Decimal `json:"labor"`
	Utilities decimal.Decimal `json:"utilities"`
	Total     decimal.Decimal `json:"total"`
}

// AggregateExpenses derives monthly rent from the annual area cost and adds
// labor and utilities.
func AggregateExpenses(in ExpenseInputs) Expenses {
	annualRent := decimal.NewFromFloat(in.FloorAreaUnits).Mul(decimal.NewFromFloat(in.AreaCostPerUnitPerYear))
	e := Expenses{
		Rent:      annualRent.Div(monthsPerYear),
		Labor:     decimal.NewFromFloat(in.LaborCostPerMonth),
		Utilities: decimal.NewFromFloat(in.UtilitiesCostPerMonth),
	}
	e.Total = e.Rent.Add(e.Labor).Add(e.Utilities)
	return e
}
