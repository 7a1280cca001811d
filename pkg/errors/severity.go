// Package errors provides severity-aware error types.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Severity indicates error impact level.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// MarshalText renders the severity by name in JSON and YAML output.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "info":
		*s = SeverityInfo
	case "warning":
		*s = SeverityWarning
	case "error":
		*s = SeverityError
	case "fatal":
		*s = SeverityFatal
	default:
		return fmt.Errorf("unknown severity %q", text)
	}
	return nil
}

// ScenarioError is a structured error with context.
type ScenarioError struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Severity    Severity `json:"severity"`
	Field       string   `json:"field,omitempty"`
	Recoverable bool     `json:"recoverable"`
}

func (e *ScenarioError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s: %s (field: %s)", e.Severity, e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Code, e.Message)
}

// Is matches on Code so callers can compare against the sentinels below.
func (e *ScenarioError) Is(target error) bool {
	t, ok := target.(*ScenarioError)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Field == "" || t.Field == e.Field)
}

// Error codes
const (
	ErrCodeInvalidCycleTime = "INVALID_CYCLE_TIME"
	ErrCodeNegativeInput    = "NEGATIVE_INPUT"
	ErrCodeOutOfRange       = "OUT_OF_RANGE"
	ErrCodeNonFiniteInput   = "NON_FINITE_INPUT"
	ErrCodeNotFound         = "SCENARIO_NOT_FOUND"
	ErrCodeStoreFailure     = "STORE_FAILURE"
)

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidCycleTime = &ScenarioError{Code: ErrCodeInvalidCycleTime}
	ErrNegativeInput    = &ScenarioError{Code: ErrCodeNegativeInput}
	ErrOutOfRange       = &ScenarioError{Code: ErrCodeOutOfRange}
	ErrNonFiniteInput   = &ScenarioError{Code: ErrCodeNonFiniteInput}
	ErrNotFound         = &ScenarioError{Code: ErrCodeNotFound}
	ErrStoreFailure     = &ScenarioError{Code: ErrCodeStoreFailure}
)

// NewInvalidCycleTimeError reports a cycle of zero length. The capacity model
// resolves it to zero sessions, so it is recoverable.
func NewInvalidCycleTimeError(durationMinutes, turnaroundMinutes float64) *ScenarioError {
	return &ScenarioError{
		Code:        ErrCodeInvalidCycleTime,
		Message:     fmt.Sprintf("cycle time is zero (duration %g + turnaround %g minutes); capacity treated as 0", durationMinutes, turnaroundMinutes),
		Severity:    SeverityWarning,
		Recoverable: true,
	}
}

// NewNegativeInputError reports a negative assumption.
func NewNegativeInputError(field string, value float64) *ScenarioError {
	return &ScenarioError{
		Code:        ErrCodeNegativeInput,
		Message:     fmt.Sprintf("value %g must not be negative", value),
		Severity:    SeverityError,
		Field:       field,
		Recoverable: true,
	}
}

// NewOutOfRangeError reports a value outside its permitted range.
func NewOutOfRangeError(field string, value, min, max float64) *ScenarioError {
	return &ScenarioError{
		Code:        ErrCodeOutOfRange,
		Message:     fmt.Sprintf("value %g outside [%g, %g]", value, min, max),
		Severity:    SeverityError,
		Field:       field,
		Recoverable: true,
	}
}

// NewNonFiniteInputError reports a NaN or infinite assumption.
func NewNonFiniteInputError(field string, value float64) *ScenarioError {
	return &ScenarioError{
		Code:        ErrCodeNonFiniteInput,
		Message:     fmt.Sprintf("value %g is not a finite number", value),
		Severity:    SeverityError,
		Field:       field,
		Recoverable: true,
	}
}

// NewNotFoundError reports a missing scenario for an owner.
func NewNotFoundError(ownerID string) *ScenarioError {
	return &ScenarioError{
		Code:     ErrCodeNotFound,
		Message:  fmt.Sprintf("no scenario stored for owner %q", ownerID),
		Severity: SeverityInfo,
	}
}

// NewStoreFailureError reports a backend error while reading or writing a
// stored scenario. The cause is logged, not returned to callers.
func NewStoreFailureError(op string) *ScenarioError {
	return &ScenarioError{
		Code:        ErrCodeStoreFailure,
		Message:     fmt.Sprintf("failed to %s scenario", op),
		Severity:    SeverityError,
		Recoverable: true,
	}
}

// AsScenarioError unwraps err into a *ScenarioError when possible.
func AsScenarioError(err error) (*ScenarioError, bool) {
	var se *ScenarioError
	if stderrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// Join folds validation errors into one; nil when errs is empty.
func Join(errs []*ScenarioError) error {
	if len(errs) == 0 {
		return nil
	}
	wrapped := make([]error, len(errs))
	for i, e := range errs {
		wrapped[i] = e
	}
	return stderrors.Join(wrapped...)
}
