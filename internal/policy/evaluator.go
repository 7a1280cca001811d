package policy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/open-policy-agent/opa/rego"

	"scenario-engine/internal/simulation"
	"scenario-engine/pkg/percent"
)

const (
	denyQuery = "data.scenario.deny"
	warnQuery = "data.scenario.warn"
)

// RegoResult holds the messages produced by rego policies.
type RegoResult struct {
	Denials  []string `json:"denials"`
	Warnings []string `json:"warnings"`
}

// RegoEvaluator runs every *.rego file in a directory against a scenario
// result. Policies declare `package scenario` and produce string sets named
// deny and warn.
type RegoEvaluator struct {
	policiesDir string
}

func NewRegoEvaluator(policiesDir string) *RegoEvaluator {
	return &RegoEvaluator{policiesDir: policiesDir}
}

// RegoInput is the document exposed to policies as `input`.
func RegoInput(r simulation.ScenarioResult) map[string]any {
	return map[string]any{
		"daily_capacity_sessions":        r.DailyCapacitySessions,
		"daily_realized_sessions":        r.DailyRealizedSessions,
		"total_monthly_revenue":          r.TotalMonthlyRevenue.InexactFloat64(),
		"total_monthly_expense":          r.TotalMonthlyExpense.InexactFloat64(),
		"monthly_profit":                 r.MonthlyProfit.InexactFloat64(),
		"annual_profit":                  r.AnnualProfit.InexactFloat64(),
		"profit_margin_percent":          r.ProfitMarginPercent.InexactFloat64(),
		"break_even_utilization_percent": r.BreakEvenUtilizationPercent.InexactFloat64(),
		"break_even_achievable":          r.BreakEven.Achievable,
		"fixed_revenue_share_percent":    fixedShare(r),
		"warning_count":                  len(r.Warnings),
	}
}

func fixedShare(r simulation.ScenarioResult) float64 {
	return percent.Of(r.Revenue.Fixed(), r.TotalMonthlyRevenue).InexactFloat64()
}

func (e *RegoEvaluator) Evaluate(ctx context.Context, r simulation.ScenarioResult) (*RegoResult, error) {
	result := &RegoResult{Denials: []string{}, Warnings: []string{}}

	files, err := e.files()
	if err != nil || len(files) == 0 {
		return result, err
	}

	input := RegoInput(r)
	for _, file := range files {
		module, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}

		denials, err := evalQuery(ctx, file, string(module), denyQuery, input)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate %s: %w", file, err)
		}
		result.Denials = append(result.Denials, denials...)

		warnings, err := evalQuery(ctx, file, string(module), warnQuery, input)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate %s: %w", file, err)
		}
		result.Warnings = append(result.Warnings, warnings...)
	}
	return result, nil
}

func (e *RegoEvaluator) files() ([]string, error) {
	if e.policiesDir == "" {
		return nil, nil
	}
	files, err := filepath.Glob(filepath.Join(e.policiesDir, "*.rego"))
	if err != nil {
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}
	return files, nil
}

func evalQuery(ctx context.Context, name, module, query string, input map[string]any) ([]string, error) {
	r := rego.New(
		rego.Query(query),
		rego.Module(name, module),
		rego.Input(input),
	)

	rs, err := r.Eval(ctx)
	if err != nil {
		return nil, err
	}

	var messages []string
	for _, result := range rs {
		for _, expr := range result.Expressions {
			if set, ok := expr.Value.([]interface{}); ok {
				for _, v := range set {
					if msg, ok := v.(string); ok {
						messages = append(messages, msg)
					}
				}
			}
		}
	}
	return messages, nil
}

// ValidatePolicies compiles every policy file without evaluating it.
func (e *RegoEvaluator) ValidatePolicies(ctx context.Context) error {
	files, err := e.files()
	if err != nil {
		return err
	}
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}
		if _, err := rego.New(rego.Query(denyQuery), rego.Module(file, string(content))).PrepareForEval(ctx); err != nil {
			return fmt.Errorf("invalid policy %s: %w", file, err)
		}
	}
	return nil
}
