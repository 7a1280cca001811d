package simulation

import (
	"math"

	"github.com/shopspring/decimal"

	"scenario-engine/pkg/errors"
)

// DailyCapacity returns the maximum number of whole sessions all resource units
// can complete in one operating window. A partial cycle at the end of the
// window is discarded.
//
// A zero cycle time (duration + turnaround) is not a meaningful session; the
// capacity is 0 and an INVALID_CYCLE_TIME error is returned alongside it so
// the caller can surface the condition.
//
// A count that does not fit in an int64 is capped at math.MaxInt64 and
// reported as OUT_OF_RANGE.
func DailyCapacity(c CapacityInputs) (int64, error) {
	for _, v := range []float64{c.OperatingWindowMinutesPerDay, c.ServiceDurationMinutes, c.TurnaroundMinutes} {
		if nonFinite(v) {
			return 0, errors.NewNonFiniteInputError("capacity", v)
		}
	}
	cycle := decimal.NewFromFloat(c.ServiceDurationMinutes).Add(decimal.NewFromFloat(c.TurnaroundMinutes))
	if cycle.Sign() <= 0 {
		return 0, errors.NewInvalidCycleTimeError(c.ServiceDurationMinutes, c.TurnaroundMinutes)
	}
	if c.ResourceUnitCount <= 0 || c.OperatingWindowMinutesPerDay <= 0 {
		return 0, nil
	}

	cyclesPerUnit := decimal.NewFromFloat(c.OperatingWindowMinutesPerDay).Div(cycle).Floor()
	total := cyclesPerUnit.Mul(decimal.NewFromInt(c.ResourceUnitCount))
	if total.GreaterThan(maxSessions) {
		return math.MaxInt64, coercion(errors.NewOutOfRangeError("daily_capacity_sessions", total.InexactFloat64(), 0, math.MaxInt64))
	}
	return total.IntPart(), nil
}

var maxSessions = decimal.NewFromInt(math.MaxInt64)
