package simulation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"scenario-engine/pkg/units"
)

// TimeUnits lets a scenario file author durations in hours or seconds.
// Empty entries mean minutes.
type TimeUnits struct {
	OperatingWindow string `json:"operating_window,omitempty" yaml:"operating_window,omitempty"`
	ServiceDuration string `json:"service_duration,omitempty" yaml:"service_duration,omitempty"`
	Turnaround      string `json:"turnaround,omitempty" yaml:"turnaround,omitempty"`
}

// InputFile is the on-disk form of a scenario.
type InputFile struct {
	Name      string        `json:"name,omitempty" yaml:"name,omitempty"`
	TimeUnits TimeUnits     `json:"time_units,omitempty" yaml:"time_units,omitempty"`
	Scenario  ScenarioInput `json:"scenario" yaml:"scenario"`
}

// durationFields records which durations a file sets, so units apply only to
// values the file itself provides.
type durationFields struct {
	Scenario struct {
		OperatingWindow *float64 `json:"operating_window_minutes_per_day" yaml:"operating_window_minutes_per_day"`
		ServiceDuration *float64 `json:"service_duration_minutes" yaml:"service_duration_minutes"`
		Turnaround      *float64 `json:"turnaround_minutes" yaml:"turnaround_minutes"`
	} `json:"scenario" yaml:"scenario"`
}

func decodeFile(data []byte, format string, v interface{}) error {
	switch strings.ToLower(format) {
	case "json":
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse scenario JSON: %w", err)
		}
	case "yaml", "yml", "":
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse scenario YAML: %w", err)
		}
	default:
		return fmt.Errorf("unsupported scenario format: %s", format)
	}
	return nil
}

// ParseInputFile decodes a YAML or JSON scenario. Fields the file omits keep
// the values from DefaultInput.
func ParseInputFile(data []byte, format string) (ScenarioInput, error) {
	return ParseInputFileOnto(data, format, DefaultInput())
}

// ParseInputFileOnto decodes a scenario over base: fields the file omits keep
// base's values. Durations the file sets are converted to minutes using its
// time_units.
func ParseInputFileOnto(data []byte, format string, base ScenarioInput) (ScenarioInput, error) {
	f := InputFile{Scenario: base}
	if err := decodeFile(data, format, &f); err != nil {
		return ScenarioInput{}, err
	}
	var set durationFields
	if err := decodeFile(data, format, &set); err != nil {
		return ScenarioInput{}, err
	}

	in := f.Scenario
	durations := []struct {
		name   string
		unit   string
		value  *float64
		target *float64
	}{
		{"operating_window", f.TimeUnits.OperatingWindow, set.Scenario.OperatingWindow, &in.OperatingWindowMinutesPerDay},
		{"service_duration", f.TimeUnits.ServiceDuration, set.Scenario.ServiceDuration, &in.ServiceDurationMinutes},
		{"turnaround", f.TimeUnits.Turnaround, set.Scenario.Turnaround, &in.TurnaroundMinutes},
	}
	for _, d := range durations {
		unit, err := units.ParseUnit(d.unit)
		if err != nil {
			return ScenarioInput{}, fmt.Errorf("time_units.%s: %w", d.name, err)
		}
		if d.value != nil {
			*d.target = units.ToMinutes(*d.value, unit)
		}
	}
	return in, nil
}

// LoadInputFile reads a scenario file, choosing the decoder by extension.
func LoadInputFile(path string) (ScenarioInput, error) {
	return LoadInputFileOnto(path, DefaultInput())
}

// LoadInputFileOnto reads a scenario file over base.
func LoadInputFileOnto(path string, base ScenarioInput) (ScenarioInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ScenarioInput{}, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseInputFileOnto(data, strings.TrimPrefix(filepath.Ext(path), "."), base)
}
