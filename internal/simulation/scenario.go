// Package simulation provides the Scenario Simulation Engine.
// It turns operational and pricing assumptions into a monthly profit-and-loss
// projection and solves for the break-even utilization rate.
package simulation

import (
	"fmt"
	"math"

	"scenario-engine/pkg/errors"
)

// CapacityInputs describe the physical resources and the operating window.
// All durations are in minutes.
type CapacityInputs struct {
	ResourceUnitCount            int64   `json:"resource_unit_count" yaml:"resource_unit_count"`
	OperatingWindowMinutesPerDay float64 `json:"operating_window_minutes_per_day" yaml:"operating_window_minutes_per_day"`
	ServiceDurationMinutes       float64 `json:"service_duration_minutes" yaml:"service_duration_minutes"`
	TurnaroundMinutes            float64 `json:"turnaround_minutes" yaml:"turnaround_minutes"`
}

// DemandInputs scale capacity into realized volume.
type DemandInputs struct {
	UtilizationRate  float64 `json:"utilization_rate" yaml:"utilization_rate"` // percent, 0-100
	DemandMultiplier float64 `json:"demand_multiplier" yaml:"demand_multiplier"`
}

// RevenueInputs are the per-stream prices and counts.
type RevenueInputs struct {
	PriceMetered             float64 `json:"price_metered" yaml:"price_metered"`
	PriceSecondaryPerSession float64 `json:"price_secondary_per_session" yaml:"price_secondary_per_session"`
	SubscriberCount          int64   `json:"subscriber_count" yaml:"subscriber_count"`
	SubscriptionFee          float64 `json:"subscription_fee" yaml:"subscription_fee"`
	SponsorCount             int64   `json:"sponsor_count" yaml:"sponsor_count"`
	SponsorFee               float64 `json:"sponsor_fee" yaml:"sponsor_fee"`
}

// ExpenseInputs are the fixed cost assumptions.
type ExpenseInputs struct {
	FloorAreaUnits         float64 `json:"floor_area_units" yaml:"floor_area_units"`
	AreaCostPerUnitPerYear float64 `json:"area_cost_per_unit_per_year" yaml:"area_cost_per_unit_per_year"`
	LaborCostPerMonth      float64 `json:"labor_cost_per_month" yaml:"labor_cost_per_month"`
	UtilitiesCostPerMonth  float64 `json:"utilities_cost_per_month" yaml:"utilities_cost_per_month"`
}

// ScenarioInput is the flat set of named assumptions for one scenario.
// The groups are embedded so JSON and YAML stay flat.
type ScenarioInput struct {
	CapacityInputs `yaml:",inline"`
	DemandInputs   `yaml:",inline"`
	RevenueInputs  `yaml:",inline"`
	ExpenseInputs  `yaml:",inline"`
}

// DefaultInput returns the baseline scenario a new owner starts from.
func DefaultInput() ScenarioInput {
	return ScenarioInput{
		CapacityInputs: CapacityInputs{
			ResourceUnitCount:            8,
			OperatingWindowMinutesPerDay: 840,
			ServiceDurationMinutes:       30,
			TurnaroundMinutes:            5,
		},
		DemandInputs: DemandInputs{
			UtilizationRate:  45,
			DemandMultiplier: 1.0,
		},
		RevenueInputs: RevenueInputs{
			PriceMetered:             35,
			PriceSecondaryPerSession: 12,
			SubscriberCount:          150,
			SubscriptionFee:          49,
			SponsorCount:             1,
			SponsorFee:               5000,
		},
		ExpenseInputs: ExpenseInputs{
			FloorAreaUnits:         2500,
			AreaCostPerUnitPerYear: 65,
			LaborCostPerMonth:      12000,
			UtilitiesCostPerMonth:  1500,
		},
	}
}

type numericField struct {
	name  string
	value *float64
}

func (in *ScenarioInput) floatFields() []numericField {
	return []numericField{
		{"operating_window_minutes_per_day", &in.OperatingWindowMinutesPerDay},
		{"service_duration_minutes", &in.ServiceDurationMinutes},
		{"turnaround_minutes", &in.TurnaroundMinutes},
		{"utilization_rate", &in.UtilizationRate},
		{"demand_multiplier", &in.DemandMultiplier},
		{"price_metered", &in.PriceMetered},
		{"price_secondary_per_session", &in.PriceSecondaryPerSession},
		{"subscription_fee", &in.SubscriptionFee},
		{"sponsor_fee", &in.SponsorFee},
		{"floor_area_units", &in.FloorAreaUnits},
		{"area_cost_per_unit_per_year", &in.AreaCostPerUnitPerYear},
		{"labor_cost_per_month", &in.LaborCostPerMonth},
		{"utilities_cost_per_month", &in.UtilitiesCostPerMonth},
	}
}

type countField struct {
	name  string
	value *int64
}

func (in *ScenarioInput) countFields() []countField {
	return []countField{
		{"resource_unit_count", &in.ResourceUnitCount},
		{"subscriber_count", &in.SubscriberCount},
		{"sponsor_count", &in.SponsorCount},
	}
}

func nonFinite(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// Validate reports every NaN, infinite or negative field and an out-of-range
// utilization rate. It is meant for input boundaries (HTTP, CLI, files);
// ComputeScenario does not require it.
func (in ScenarioInput) Validate() []*errors.ScenarioError {
	var errs []*errors.ScenarioError
	for _, f := range in.countFields() {
		if *f.value < 0 {
			errs = append(errs, errors.NewNegativeInputError(f.name, float64(*f.value)))
		}
	}
	for _, f := range in.floatFields() {
		switch {
		case nonFinite(*f.value):
			errs = append(errs, errors.NewNonFiniteInputError(f.name, *f.value))
		case *f.value < 0:
			errs = append(errs, errors.NewNegativeInputError(f.name, *f.value))
		}
	}
	if !nonFinite(in.UtilizationRate) && in.UtilizationRate > 100 {
		errs = append(errs, errors.NewOutOfRangeError("utilization_rate", in.UtilizationRate, 0, 100))
	}
	return errs
}

// Normalize coerces the input into the engine's domain: NaN, infinite and
// negative values become zero and the utilization rate is clamped to [0, 100]. Every coercion is
// returned as a warning so callers can show what was changed.
func (in ScenarioInput) Normalize() (ScenarioInput, []*errors.ScenarioError) {
	out := in
	var warnings []*errors.ScenarioError

	for _, f := range out.countFields() {
		if *f.value < 0 {
			warnings = append(warnings, coercion(errors.NewNegativeInputError(f.name, float64(*f.value))))
			*f.value = 0
		}
	}
	for _, f := range out.floatFields() {
		switch {
		case nonFinite(*f.value):
			warnings = append(warnings, coercion(errors.NewNonFiniteInputError(f.name, *f.value)))
			*f.value = 0
		case *f.value < 0:
			warnings = append(warnings, coercion(errors.NewNegativeInputError(f.name, *f.value)))
			*f.value = 0
		}
	}
	if out.UtilizationRate > 100 {
		warnings = append(warnings, coercion(errors.NewOutOfRangeError("utilization_rate", out.UtilizationRate, 0, 100)))
		out.UtilizationRate = 100
	}
	return out, warnings
}

func coercion(e *errors.ScenarioError) *errors.ScenarioError {
	e.Severity = errors.SeverityWarning
	e.Message = fmt.Sprintf("%s; coerced into range", e.Message)
	return e
}
