package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"scenario-engine/internal/policy"
	"scenario-engine/internal/simulation"
	"scenario-engine/internal/store"
	"scenario-engine/pkg/errors"
)

// =============================================================================
// OUTPUT FORMATTERS
// =============================================================================

type JSONOutput struct {
	DailyCapacitySessions       int64                   `json:"daily_capacity_sessions"`
	DailyRealizedSessions       int64                   `json:"daily_realized_sessions"`
	MonthlyMeteredRevenue       string                  `json:"monthly_metered_revenue"`
	MonthlySecondaryRevenue     string                  `json:"monthly_secondary_revenue"`
	MonthlySubscriptionRevenue  string                  `json:"monthly_subscription_revenue"`
	MonthlySponsorshipRevenue   string                  `json:"monthly_sponsorship_revenue"`
	TotalMonthlyRevenue         string                  `json:"total_monthly_revenue"`
	MonthlyRent                 string                  `json:"monthly_rent"`
	TotalMonthlyExpense         string                  `json:"total_monthly_expense"`
	MonthlyProfit               string                  `json:"monthly_profit"`
	AnnualProfit                string                  `json:"annual_profit"`
	ProfitMarginPercent         string                  `json:"profit_margin_percent"`
	BreakEvenUtilizationPercent string                  `json:"break_even_utilization_percent"`
	BreakEvenAchievable         bool                    `json:"break_even_achievable"`
	Drivers                     []simulation.Driver     `json:"drivers"`
	Warnings                    []*errors.ScenarioError `json:"warnings"`
	PolicyResult                string                  `json:"policy_result,omitempty"`
	Violations                  []policy.Violation      `json:"violations,omitempty"`
	PolicyWarnings              []policy.Warning        `json:"policy_warnings,omitempty"`
}

func outputJSON(w io.Writer, r simulation.ScenarioResult, pol *policy.EvaluationResult) error {
	output := JSONOutput{
		DailyCapacitySessions:       r.DailyCapacitySessions,
		DailyRealizedSessions:       r.DailyRealizedSessions,
		MonthlyMeteredRevenue:       r.MonthlyMeteredRevenue.StringFixed(2),
		MonthlySecondaryRevenue:     r.MonthlySecondaryRevenue.StringFixed(2),
		MonthlySubscriptionRevenue:  r.MonthlySubscriptionRevenue.StringFixed(2),
		MonthlySponsorshipRevenue:   r.MonthlySponsorshipRevenue.StringFixed(2),
		TotalMonthlyRevenue:         r.TotalMonthlyRevenue.StringFixed(2),
		MonthlyRent:                 r.MonthlyRent.StringFixed(2),
		TotalMonthlyExpense:         r.TotalMonthlyExpense.StringFixed(2),
		MonthlyProfit:               r.MonthlyProfit.StringFixed(2),
		AnnualProfit:                r.AnnualProfit.StringFixed(2),
		ProfitMarginPercent:         r.ProfitMarginPercent.StringFixed(2),
		BreakEvenUtilizationPercent: r.BreakEvenUtilizationPercent.StringFixed(2),
		BreakEvenAchievable:         r.BreakEven.Achievable,
		Drivers:                     r.Drivers,
		Warnings:                    r.Warnings,
	}

	if pol != nil {
		output.PolicyResult = string(pol.Decision)
		output.Violations = pol.Violations
		output.PolicyWarnings = pol.Warnings
	}

	return writeJSON(w, output)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// usd renders an amount as $1,234.56.
func usd(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	return sign + "$" + humanize.FormatFloat("#,###.##", d.Round(2).InexactFloat64())
}

func pct(d decimal.Decimal) string {
	return d.StringFixed(2) + "%"
}

const rule = "+----------------------------------+------------------+"

func outputTable(w io.Writer, r simulation.ScenarioResult, pol *policy.EvaluationResult) error {
	row := func(label, value string) {
		fmt.Fprintf(w, "| %-32s | %16s |\n", label, value)
	}

	fmt.Fprintln(w, rule)
	row("Daily capacity (sessions)", humanize.Comma(r.DailyCapacitySessions))
	row("Daily realized (sessions)", humanize.Comma(r.DailyRealizedSessions))
	fmt.Fprintln(w, rule)
	row("Metered revenue", usd(r.MonthlyMeteredRevenue))
	row("Secondary revenue", usd(r.MonthlySecondaryRevenue))
	row("Subscription revenue", usd(r.MonthlySubscriptionRevenue))
	row("Sponsorship revenue", usd(r.MonthlySponsorshipRevenue))
	row("Total monthly revenue", usd(r.TotalMonthlyRevenue))
	fmt.Fprintln(w, rule)
	row("Monthly rent", usd(r.MonthlyRent))
	row("Total monthly expense", usd(r.TotalMonthlyExpense))
	fmt.Fprintln(w, rule)
	row("Monthly profit", usd(r.MonthlyProfit))
	row("Annual profit", usd(r.AnnualProfit))
	row("Profit margin", pct(r.ProfitMarginPercent))
	be := pct(r.BreakEvenUtilizationPercent)
	if !r.BreakEven.Achievable {
		be += " (!)"
	}
	row("Break-even utilization", be)
	fmt.Fprintln(w, rule)

	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn.Message)
	}

	if pol != nil {
		fmt.Fprintf(w, "Policy result: %s\n", pol.Decision)
		for _, v := range pol.Violations {
			fmt.Fprintf(w, "  DENY %s\n", truncate(v.Message, 72))
		}
		for _, wn := range pol.Warnings {
			fmt.Fprintf(w, "  WARN %s\n", truncate(wn.Message, 72))
		}
	}
	return nil
}

func outputMarkdown(w io.Writer, r simulation.ScenarioResult, pol *policy.EvaluationResult) error {
	fmt.Fprintln(w, "## Scenario Projection")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Metric | Value |")
	fmt.Fprintln(w, "|--------|-------|")
	fmt.Fprintf(w, "| **Daily capacity** | %s sessions |\n", humanize.Comma(r.DailyCapacitySessions))
	fmt.Fprintf(w, "| **Daily realized** | %s sessions |\n", humanize.Comma(r.DailyRealizedSessions))
	fmt.Fprintf(w, "| **Monthly revenue** | %s |\n", usd(r.TotalMonthlyRevenue))
	fmt.Fprintf(w, "| **Monthly expense** | %s |\n", usd(r.TotalMonthlyExpense))
	fmt.Fprintf(w, "| **Monthly profit** | %s |\n", usd(r.MonthlyProfit))
	fmt.Fprintf(w, "| **Annual profit** | %s |\n", usd(r.AnnualProfit))
	fmt.Fprintf(w, "| **Margin** | %s |\n", pct(r.ProfitMarginPercent))
	fmt.Fprintf(w, "| **Break-even utilization** | %s |\n", pct(r.BreakEvenUtilizationPercent))
	if pol != nil {
		fmt.Fprintf(w, "| **Policy Result** | %s |\n", pol.Decision)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "### Breakdown")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Line | Type | Monthly | Formula |")
	fmt.Fprintln(w, "|------|------|---------|---------|")
	for _, d := range r.Drivers {
		fmt.Fprintf(w, "| %s | %s %s | %s | `%s` |\n", d.Description, d.Classification, d.Kind, usd(d.MonthlyAmount), d.Formula)
	}

	if pol != nil && len(pol.Violations) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "### Policy Violations")
		fmt.Fprintln(w)
		for _, v := range pol.Violations {
			fmt.Fprintf(w, "- **%s**: %s\n", v.PolicyName, v.Message)
		}
	}

	if len(r.Warnings) > 0 || (pol != nil && len(pol.Warnings) > 0) {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "### Warnings")
		fmt.Fprintln(w)
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "- %s\n", warn.Message)
		}
		if pol != nil {
			for _, wn := range pol.Warnings {
				fmt.Fprintf(w, "- %s\n", wn.Message)
			}
		}
	}
	return nil
}

func outputSweepTable(w io.Writer, points []simulation.SweepPoint) error {
	fmt.Fprintf(w, "%8s  %10s  %14s  %14s  %8s\n", "UTIL %", "SESSIONS", "REVENUE", "PROFIT", "MARGIN")
	for _, p := range points {
		fmt.Fprintf(w, "%8s  %10s  %14s  %14s  %8s\n",
			p.UtilizationRate.StringFixed(1),
			humanize.Comma(p.DailyRealizedSessions),
			usd(p.TotalMonthlyRevenue),
			usd(p.MonthlyProfit),
			pct(p.ProfitMarginPercent),
		)
	}
	return nil
}

func outputRecords(w io.Writer, records []store.Record) error {
	if len(records) == 0 {
		fmt.Fprintln(w, "no stored scenarios")
		return nil
	}
	now := time.Now()
	for _, rec := range records {
		fmt.Fprintf(w, "%-24s  %s  updated %s\n", rec.OwnerID, rec.RevisionID, humanize.RelTime(rec.UpdatedAt, now, "ago", "from now"))
	}
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
