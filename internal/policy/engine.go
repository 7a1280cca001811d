// Package policy provides scenario guardrails.
// Evaluates profitability and capacity policies against computed scenarios.
package policy

import (
	"context"
	"fmt"
	"time"

	"scenario-engine/internal/simulation"
	"scenario-engine/pkg/errors"
)

// PolicyType defines the type of policy
type PolicyType string

const (
	PolicyTypeMinMargin          PolicyType = "min_margin"
	PolicyTypeMaxBreakEven       PolicyType = "max_break_even"
	PolicyTypeNegativeProfit     PolicyType = "negative_profit"
	PolicyTypeCapacityExceeded   PolicyType = "capacity_exceeded"
	PolicyTypeDegenerateCapacity PolicyType = "degenerate_capacity"
)

// Severity defines policy violation severity
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Decision is the policy evaluation outcome
type Decision string

const (
	DecisionPass Decision = "pass"
	DecisionWarn Decision = "warn"
	DecisionDeny Decision = "deny"
)

// Policy defines a guardrail
type Policy struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Type        PolicyType `json:"type" yaml:"type"`
	Severity    Severity   `json:"severity" yaml:"severity"`
	Threshold   float64    `json:"threshold" yaml:"threshold"`
	Enabled     bool       `json:"enabled" yaml:"enabled"`
}

// Violation represents a policy violation
type Violation struct {
	PolicyID   string `json:"policy_id"`
	PolicyName string `json:"policy_name"`
	Message    string `json:"message"`
	Severity   string `json:"severity"`
}

// Warning represents a policy warning
type Warning struct {
	PolicyID string `json:"policy_id"`
	Message  string `json:"message"`
}

// EvaluationRequest contains the input for policy evaluation
type EvaluationRequest struct {
	Result         simulation.ScenarioResult
	CustomPolicies []Policy
}

// EvaluationResult contains the policy evaluation outcome
type EvaluationResult struct {
	Decision    Decision    `json:"decision"`
	Violations  []Violation `json:"violations"`
	Warnings    []Warning   `json:"warnings"`
	PoliciesRan int         `json:"policies_ran"`
	EvaluatedAt time.Time   `json:"evaluated_at"`
}

// Engine evaluates policies against scenario results
type Engine struct {
	policies []Policy
	rego     *RegoEvaluator
}

// NewEngine creates a policy engine loaded with the default guardrails
func NewEngine() *Engine {
	return &Engine{policies: DefaultPolicies()}
}

// NewEngineWithPolicies replaces the defaults.
func NewEngineWithPolicies(policies []Policy) *Engine {
	return &Engine{policies: append([]Policy(nil), policies...)}
}

// WithRegoDir adds the rego policies found in dir to every evaluation.
func (e *Engine) WithRegoDir(dir string) *Engine {
	if dir != "" {
		e.rego = NewRegoEvaluator(dir)
	}
	return e
}

// AddPolicy adds a custom policy
func (e *Engine) AddPolicy(p Policy) {
	e.policies = append(e.policies, p)
}

// Policies returns a copy of the configured policies.
func (e *Engine) Policies() []Policy {
	return append([]Policy(nil), e.policies...)
}

// Evaluate runs all enabled policies against the result
func (e *Engine) Evaluate(ctx context.Context, req EvaluationRequest) (*EvaluationResult, error) {
	result := &EvaluationResult{
		Decision:    DecisionPass,
		Violations:  make([]Violation, 0),
		Warnings:    make([]Warning, 0),
		EvaluatedAt: time.Now().UTC(),
	}

	all := make([]Policy, 0, len(e.policies)+len(req.CustomPolicies))
	all = append(all, e.policies...)
	all = append(all, req.CustomPolicies...)

	for _, p := range all {
		if !p.Enabled {
			continue
		}
		result.PoliciesRan++

		message, triggered := check(p, req.Result)
		if !triggered {
			continue
		}

		if p.Severity == SeverityError {
			result.Violations = append(result.Violations, Violation{
				PolicyID:   p.ID,
				PolicyName: p.Name,
				Message:    message,
				Severity:   string(p.Severity),
			})
			result.Decision = DecisionDeny
			continue
		}

		result.Warnings = append(result.Warnings, Warning{PolicyID: p.ID, Message: message})
		if result.Decision == DecisionPass {
			result.Decision = DecisionWarn
		}
	}

	if e.rego != nil {
		rr, err := e.rego.Evaluate(ctx, req.Result)
		if err != nil {
			return nil, err
		}
		for _, msg := range rr.Denials {
			result.Violations = append(result.Violations, Violation{
				PolicyID:   "rego",
				PolicyName: "Rego Policy",
				Message:    msg,
				Severity:   string(SeverityError),
			})
			result.Decision = DecisionDeny
		}
		for _, msg := range rr.Warnings {
			result.Warnings = append(result.Warnings, Warning{PolicyID: "rego", Message: msg})
			if result.Decision == DecisionPass {
				result.Decision = DecisionWarn
			}
		}
	}

	return result, nil
}

func check(p Policy, r simulation.ScenarioResult) (string, bool) {
	switch p.Type {
	case PolicyTypeMinMargin:
		margin := r.ProfitMarginPercent.InexactFloat64()
		if margin < p.Threshold {
			return fmt.Sprintf("Profit margin (%.2f%%) below minimum (%.2f%%)", margin, p.Threshold), true
		}

	case PolicyTypeMaxBreakEven:
		if !r.BreakEven.Achievable {
			return fmt.Sprintf("Break-even not reachable within capacity (needs %s%% utilization)",
				r.BreakEven.Unclamped.StringFixed(2)), true
		}
		be := r.BreakEvenUtilizationPercent.InexactFloat64()
		if be > p.Threshold {
			return fmt.Sprintf("Break-even utilization (%.2f%%) exceeds limit (%.2f%%)", be, p.Threshold), true
		}

	case PolicyTypeNegativeProfit:
		if r.MonthlyProfit.IsNegative() {
			return fmt.Sprintf("Scenario loses $%s per month", r.MonthlyProfit.Neg().StringFixed(2)), true
		}

	case PolicyTypeCapacityExceeded:
		if r.DailyRealizedSessions > r.DailyCapacitySessions {
			return fmt.Sprintf("Realized sessions (%d/day) exceed capacity (%d/day)",
				r.DailyRealizedSessions, r.DailyCapacitySessions), true
		}

	case PolicyTypeDegenerateCapacity:
		if r.HasWarning(errors.ErrCodeInvalidCycleTime) {
			return "Cycle time is zero; capacity resolved to 0", true
		}
		if r.DailyCapacitySessions == 0 {
			return "Scenario has no daily capacity", true
		}
	}

	return "", false
}

// DefaultPolicies returns the built-in guardrails.
func DefaultPolicies() []Policy {
	return []Policy{
		{
			ID:          "default-min-margin",
			Name:        "Minimum Margin",
			Description: "Warn when profit margin is below 10%",
			Type:        PolicyTypeMinMargin,
			Severity:    SeverityWarning,
			Threshold:   10,
			Enabled:     true,
		},
		{
			ID:          "default-break-even",
			Name:        "Reachable Break-Even",
			Description: "Warn when break-even needs more than 80% utilization",
			Type:        PolicyTypeMaxBreakEven,
			Severity:    SeverityWarning,
			Threshold:   80,
			Enabled:     true,
		},
		{
			ID:          "no-negative-profit",
			Name:        "No Monthly Loss",
			Description: "Deny scenarios that lose money every month",
			Type:        PolicyTypeNegativeProfit,
			Severity:    SeverityError,
			Enabled:     true,
		},
		{
			ID:          "capacity-exceeded",
			Name:        "Demand Above Capacity",
			Description: "Warn when the demand multiplier pushes sessions past capacity",
			Type:        PolicyTypeCapacityExceeded,
			Severity:    SeverityWarning,
			Enabled:     true,
		},
		{
			ID:          "degenerate-capacity",
			Name:        "Zero Capacity",
			Description: "Warn when the scenario cannot serve any sessions",
			Type:        PolicyTypeDegenerateCapacity,
			Severity:    SeverityWarning,
			Enabled:     true,
		},
	}
}
