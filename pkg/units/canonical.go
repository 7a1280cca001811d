// Package units provides canonical unit types and conversions.
package units

import (
	"fmt"
	"strings"
)

// Unit represents a measurable quantity.
type Unit string

const (
	// Time units
	UnitSeconds Unit = "seconds"
	UnitMinutes Unit = "minutes"
	UnitHours   Unit = "hours"
)

// Calendar conventions used by the scenario model.
const (
	// DaysPerMonth is the fixed billing month, not calendar-accurate.
	DaysPerMonth = 30
	// MonthsPerYear is used for rent and annual profit.
	MonthsPerYear = 12
	// MinutesPerDay bounds a single operating window.
	MinutesPerDay = 24 * 60
)

// ParseUnit maps common spellings to a canonical time unit, ignoring case and
// surrounding space. An empty string means minutes.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "s", "sec", "secs", "second", "seconds":
		return UnitSeconds, nil
	case "", "m", "min", "mins", "minute", "minutes":
		return UnitMinutes, nil
	case "h", "hr", "hrs", "hour", "hours":
		return UnitHours, nil
	default:
		return "", fmt.Errorf("unknown time unit %q (minutes, hours, seconds)", s)
	}
}

// ToMinutes converts a time value to minutes.
// No rounding is applied and negative values pass through unchanged.
func ToMinutes(value float64, unit Unit) float64 {
	switch unit {
	case UnitSeconds:
		return value / 60
	case UnitHours:
		return value * 60
	default:
		return value
	}
}

// FromMinutes is the inverse of ToMinutes.
func FromMinutes(minutes float64, unit Unit) float64 {
	switch unit {
	case UnitSeconds:
		return minutes * 60
	case UnitHours:
		return minutes / 60
	default:
		return minutes
	}
}
