package simulation

import (
	"github.com/shopspring/decimal"

	"scenario-engine/pkg/units"
)

var daysPerMonth = decimal.NewFromInt(units.DaysPerMonth)

// Revenue holds the monthly figure of every revenue stream.
type Revenue struct {
	Metered      decimal.Decimal `json:"metered"`
	Secondary    decimal.Decimal `json:"secondary"`
	Subscription decimal.Decimal `json:"subscription"`
	Sponsorship  decimal.Decimal `json:"sponsorship"`
	Total        decimal.Decimal `json:"total"`
}

// Variable is the revenue that scales with realized sessions.
func (r Revenue) Variable() decimal.Decimal {
	return r.Metered.Add(r.Secondary)
}

// Fixed is the revenue independent of utilization.
func (r Revenue) Fixed() decimal.Decimal {
	return r.Subscription.Add(r.Sponsorship)
}

// AggregateRevenue computes each stream independently and sums them. A month
// is always 30 days.
func AggregateRevenue(realizedPerDay int64, in RevenueInputs) Revenue {
	sessionsPerMonth := decimal.NewFromInt(realizedPerDay).Mul(daysPerMonth)

	r := Revenue{
		Metered:      sessionsPerMonth.Mul(decimal.NewFromFloat(in.PriceMetered)),
		Secondary:    sessionsPerMonth.Mul(decimal.NewFromFloat(in.PriceSecondaryPerSession)),
		Subscription: decimal.NewFromInt(in.SubscriberCount).Mul(decimal.NewFromFloat(in.SubscriptionFee)),
		Sponsorship:  decimal.NewFromInt(in.SponsorCount).Mul(decimal.NewFromFloat(in.SponsorFee)),
	}
	r.Total = r.Variable().Add(r.Fixed())
	return r
}

// variableRevenuePerSession is the combined price of the per-session streams.
func variableRevenuePerSession(in RevenueInputs) decimal.Decimal {
	return decimal.NewFromFloat(in.PriceMetered).Add(decimal.NewFromFloat(in.PriceSecondaryPerSession))
}
