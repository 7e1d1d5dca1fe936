package xirr

import (
	"math"
	"testing"
	"time"

	"github.com/ndewijer/Wealth-Tracker-Backend/internal/model"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// TestSolve_RoundTrip tests a single buy followed by a sale one year later.
//
// WHY: This is the reference case every XIRR implementation must get right;
// a wrong sign convention or year basis shows up here first.
func TestSolve_RoundTrip(t *testing.T) {
	t0 := day(2023, time.January, 1)
	flows := []model.CashFlow{
		{Date: t0, Amount: -1000},
		{Date: t0.AddDate(0, 0, 365), Amount: 1100},
	}

	result := Solve(flows)

	if !result.Defined {
		t.Fatal("Expected a defined result")
	}
	if !result.Converged {
		t.Error("Expected solver to converge")
	}
	if !approxEqual(result.Rate, 0.10, 1e-4) {
		t.Errorf("Expected rate ~0.10, got %.6f", result.Rate)
	}
	if !approxEqual(result.Percent(), 10.0, 1e-2) {
		t.Errorf("Expected ~10%%, got %.4f%%", result.Percent())
	}
}

func TestSolve_KnownRates(t *testing.T) {
	tests := []struct {
		name     string
		flows    []model.CashFlow
		expected float64
		tol      float64
	}{
		{
			name: "loss over one year",
			flows: []model.CashFlow{
				{Date: day(2024, time.January, 1), Amount: -1000},
				{Date: day(2024, time.January, 1).AddDate(0, 0, 365), Amount: 800},
			},
			expected: -0.2001,
			tol:      1e-3,
		},
		{
			name: "five percent in six months annualizes",
			flows: []model.CashFlow{
				{Date: day(2024, time.January, 1), Amount: -10000},
				{Date: day(2024, time.July, 1), Amount: 10500},
			},
			expected: 0.1029,
			tol:      1e-3,
		},
		{
			name: "break even",
			flows: []model.CashFlow{
				{Date: day(2022, time.March, 15), Amount: -500},
				{Date: day(2023, time.March, 15), Amount: 500},
			},
			expected: 0,
			tol:      1e-6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Solve(tt.flows)

			if !result.Defined {
				t.Fatal("Expected a defined result")
			}
			if !approxEqual(result.Rate, tt.expected, tt.tol) {
				t.Errorf("Expected rate ~%.4f, got %.6f", tt.expected, result.Rate)
			}
		})
	}
}

// TestSolve_DegenerateInputs tests inputs with no meaningful rate.
//
// WHY: The solver must signal "cannot compute" with a zero, undefined result
// instead of panicking or returning NaN.
func TestSolve_DegenerateInputs(t *testing.T) {
	t0 := day(2024, time.January, 1)

	tests := []struct {
		name  string
		flows []model.CashFlow
	}{
		{name: "empty input", flows: nil},
		{name: "single flow", flows: []model.CashFlow{{Date: t0, Amount: -100}}},
		{name: "all positive", flows: []model.CashFlow{
			{Date: t0, Amount: 100},
			{Date: t0.AddDate(1, 0, 0), Amount: 200},
		}},
		{name: "all negative", flows: []model.CashFlow{
			{Date: t0, Amount: -100},
			{Date: t0.AddDate(1, 0, 0), Amount: -200},
		}},
		{name: "only undated flows", flows: []model.CashFlow{
			{Amount: -100},
			{Amount: 200},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Solve(tt.flows)

			if result.Rate != 0 {
				t.Errorf("Expected rate 0, got %f", result.Rate)
			}
			if result.Defined {
				t.Error("Expected undefined result")
			}
		})
	}
}

// TestSolve_OrderInvariant tests that shuffling flows does not change the result.
//
// WHY: The base date is the earliest flow, not the first one in the slice.
func TestSolve_OrderInvariant(t *testing.T) {
	ordered := []model.CashFlow{
		{Date: day(2021, time.January, 10), Amount: -5000},
		{Date: day(2021, time.June, 3), Amount: -2500},
		{Date: day(2022, time.February, 20), Amount: 1200},
		{Date: day(2022, time.November, 1), Amount: -1000},
		{Date: day(2024, time.April, 30), Amount: 9800},
	}
	shuffled := []model.CashFlow{ordered[3], ordered[0], ordered[4], ordered[2], ordered[1]}
	reversed := []model.CashFlow{ordered[4], ordered[3], ordered[2], ordered[1], ordered[0]}

	want := Solve(ordered)
	if !want.Defined || !want.Converged {
		t.Fatalf("Expected converged result, got %+v", want)
	}

	for name, flows := range map[string][]model.CashFlow{"shuffled": shuffled, "reversed": reversed} {
		t.Run(name, func(t *testing.T) {
			got := Solve(flows)
			if !approxEqual(got.Rate, want.Rate, 1e-9) {
				t.Errorf("Expected %.10f, got %.10f", want.Rate, got.Rate)
			}
		})
	}

	t.Run("does not reorder the caller's slice", func(t *testing.T) {
		input := []model.CashFlow{ordered[4], ordered[0]}
		Solve(input)
		if !input[0].Date.Equal(ordered[4].Date) {
			t.Error("Solve modified the input slice")
		}
	})
}

func TestSolve_RootHasZeroNPV(t *testing.T) {
	flows := []model.CashFlow{
		{Date: day(2008, time.January, 1), Amount: -10000},
		{Date: day(2008, time.March, 1), Amount: 2750},
		{Date: day(2008, time.October, 30), Amount: 4250},
		{Date: day(2009, time.February, 15), Amount: 3250},
		{Date: day(2009, time.April, 1), Amount: 2750},
	}

	result := Solve(flows)
	if !result.Converged {
		t.Fatalf("Expected convergence, got %+v", result)
	}
	if result.Rate < 0.3 || result.Rate > 0.45 {
		t.Errorf("Expected rate near 0.37, got %.6f", result.Rate)
	}
	if npv := NPV(flows, result.Rate); math.Abs(npv) > 1e-4 {
		t.Errorf("Expected NPV ~0 at solved rate, got %g", npv)
	}
}

func TestSolve_TimeOfDayIgnored(t *testing.T) {
	morning := []model.CashFlow{
		{Date: time.Date(2023, time.May, 1, 8, 30, 0, 0, time.UTC), Amount: -1000},
		{Date: time.Date(2024, time.May, 1, 23, 59, 0, 0, time.UTC), Amount: 1150},
	}
	midnight := []model.CashFlow{
		{Date: day(2023, time.May, 1), Amount: -1000},
		{Date: day(2024, time.May, 1), Amount: 1150},
	}

	a, b := Solve(morning), Solve(midnight)
	if !approxEqual(a.Rate, b.Rate, 1e-12) {
		t.Errorf("Expected identical rates, got %.10f and %.10f", a.Rate, b.Rate)
	}
}

func TestSolve_NaNNeverReachesSolver(t *testing.T) {
	t0 := day(2023, time.January, 1)
	flows := []model.CashFlow{
		{Date: t0, Amount: -1000},
		{Date: t0.AddDate(0, 1, 0), Amount: math.NaN()},
		{Date: t0.AddDate(0, 2, 0), Amount: math.Inf(1)},
		{Date: t0.AddDate(0, 0, 365), Amount: 1100},
	}

	result := Solve(flows)
	if math.IsNaN(result.Rate) {
		t.Fatal("Expected NaN amounts to be dropped")
	}
	if !approxEqual(result.Rate, 0.10, 1e-4) {
		t.Errorf("Expected rate ~0.10, got %.6f", result.Rate)
	}
}

// TestSolve_ClampedRate tests a loss worse than the clamping band allows.
//
// WHY: The solver must terminate and report the clamped value as unconverged
// rather than loop or diverge.
func TestSolve_ClampedRate(t *testing.T) {
	t0 := day(2023, time.January, 1)
	flows := []model.CashFlow{
		{Date: t0, Amount: -1000},
		{Date: t0.AddDate(0, 0, 365), Amount: 1},
	}

	result := Solve(flows)

	if !result.Defined {
		t.Fatal("Expected a defined result")
	}
	if result.Converged {
		t.Error("Expected unconverged result for a rate outside the band")
	}
	if result.Rate != MinRate {
		t.Errorf("Expected rate clamped to %v, got %v", MinRate, result.Rate)
	}
}

func TestNPV(t *testing.T) {
	t0 := day(2023, time.January, 1)
	flows := []model.CashFlow{
		{Date: t0, Amount: -1000},
		{Date: t0.AddDate(0, 0, 365), Amount: 1100},
	}

	if got := NPV(flows, 0); !approxEqual(got, 100, 1e-9) {
		t.Errorf("Expected NPV(0) = 100, got %f", got)
	}
	if got := NPV(nil, 0.1); got != 0 {
		t.Errorf("Expected NPV of no flows to be 0, got %f", got)
	}
}
