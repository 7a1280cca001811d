package simulation

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestSweep(t *testing.T) {
	points, err := Sweep(DefaultInput(), 0, 100, 25)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(points) != 5 {
		t.Fatalf("got %d points, want 5", len(points))
	}
	if !points[4].UtilizationRate.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("last rate = %s, want 100", points[4].UtilizationRate)
	}
	if points[0].DailyRealizedSessions != 0 || points[4].DailyRealizedSessions != 192 {
		t.Fatalf("realized at ends = %d/%d, want 0/192", points[0].DailyRealizedSessions, points[4].DailyRealizedSessions)
	}
	for i := 1; i < len(points); i++ {
		if points[i].MonthlyProfit.LessThan(points[i-1].MonthlyProfit) {
			t.Fatalf("profit should not fall as utilization rises (point %d)", i)
		}
		if !points[i].TotalMonthlyExpense.Equal(points[0].TotalMonthlyExpense) {
			t.Fatal("expenses must not vary with utilization")
		}
	}
}

func TestSweepMatchesCompute(t *testing.T) {
	in := DefaultInput()
	points, err := Sweep(in, 45, 45, 1)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	res := ComputeScenario(in)
	if len(points) != 1 || !points[0].MonthlyProfit.Equal(res.MonthlyProfit) {
		t.Fatalf("sweep point %+v does not match ComputeScenario", points)
	}
}

func TestSweepRejectsBadRange(t *testing.T) {
	if _, err := Sweep(DefaultInput(), 0, 100, 0); err == nil {
		t.Fatal("expected error for zero step")
	}
	if _, err := Sweep(DefaultInput(), 60, 40, 5); err == nil {
		t.Fatal("expected error for reversed range")
	}
	if _, err := Sweep(DefaultInput(), 0, 100, 0.01); err == nil {
		t.Fatal("expected error for too many points")
	}
}

func TestSweepRejectsTinyStep(t *testing.T) {
	for _, step := range []float64{1e-17, 1e-300} {
		points, err := Sweep(DefaultInput(), 0, 100, step)
		if err == nil {
			t.Fatalf("step %g: expected error, got %d points", step, len(points))
		}
	}
}

func TestSweepRejectsNonFiniteBounds(t *testing.T) {
	cases := [][3]float64{
		{math.NaN(), 100, 5},
		{0, math.Inf(1), 5},
		{0, 100, math.NaN()},
		{0, 100, math.Inf(1)},
	}
	for _, c := range cases {
		if _, err := Sweep(DefaultInput(), c[0], c[1], c[2]); err == nil {
			t.Fatalf("Sweep(%v) should fail", c)
		}
	}
}

func TestSweepAtPointLimit(t *testing.T) {
	points, err := Sweep(DefaultInput(), 0, 100, 0.1)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(points) != MaxSweepPoints {
		t.Fatalf("got %d points, want %d", len(points), MaxSweepPoints)
	}
}
