// Package xirr computes the annualized money-weighted rate of return of an
// irregular cash-flow schedule.
//
// The rate r solves
//
//	Σ amount_i / (1+r)^(days_i/365.25) = 0
//
// where days_i is counted from the earliest flow. Newton-Raphson with the
// analytic derivative is tried first; bisection over the clamping band is the
// fallback when Newton stalls or runs out of iterations.
package xirr

import (
	"math"
	"slices"
	"time"

	"github.com/ndewijer/Wealth-Tracker-Backend/internal/model"
)

const (
	// InitialGuess is the starting rate for Newton-Raphson (10% a year).
	InitialGuess = 0.10
	// Tolerance applies both to |NPV| and to the change in rate between iterations.
	Tolerance = 1e-7
	// MaxIterations caps the Newton-Raphson phase.
	MaxIterations = 100

	// MinRate and MaxRate bound every iteration. They exist for display sanity:
	// a rate below -99% or above +1000% a year is meaningless on a dashboard.
	// Rates are clamped to this band rather than rejected.
	MinRate = -0.99
	MaxRate = 10.0

	bisectionIterations = 200
	daysPerYear         = 365.25
)

// Result is the outcome of Solve.
//
// Defined is false when no rate can be computed (fewer than two flows, or no
// sign change); Rate is 0 in that case. Converged is false when neither
// Newton-Raphson nor bisection met the tolerance and Rate is the last Newton
// iterate.
type Result struct {
	Rate      float64 `json:"rate"`
	Defined   bool    `json:"defined"`
	Converged bool    `json:"converged"`
}

// Percent returns the rate as a percentage.
func (r Result) Percent() float64 {
	return r.Rate * 100
}

// Solve returns the annualized rate of return for flows.
// Input order does not matter; flows are sorted by date internally and the
// input slice is never modified.
func Solve(flows []model.CashFlow) Result {
	cleaned := make([]model.CashFlow, 0, len(flows))
	for _, f := range flows {
		if f.Date.IsZero() || math.IsNaN(f.Amount) || math.IsInf(f.Amount, 0) {
			continue
		}
		cleaned = append(cleaned, f)
	}

	if len(cleaned) < 2 || !hasSignChange(cleaned) {
		return Result{}
	}

	slices.SortStableFunc(cleaned, func(a, b model.CashFlow) int {
		return a.Date.Compare(b.Date)
	})

	s := newSchedule(cleaned)

	rate, ok := s.newton()
	if ok {
		return finite(Result{Rate: rate, Defined: true, Converged: true})
	}

	if bisected, ok := s.bisect(); ok {
		return finite(Result{Rate: bisected, Defined: true, Converged: true})
	}

	return finite(Result{Rate: rate, Defined: true, Converged: false})
}

// NPV returns the net present value of flows at rate, discounting from the earliest date.
// It is exported for tests and diagnostics.
func NPV(flows []model.CashFlow, rate float64) float64 {
	if len(flows) == 0 {
		return 0
	}
	sorted := slices.Clone(flows)
	slices.SortStableFunc(sorted, func(a, b model.CashFlow) int {
		return a.Date.Compare(b.Date)
	})
	v, _ := newSchedule(sorted).npv(rate)
	return v
}

func hasSignChange(flows []model.CashFlow) bool {
	hasNeg, hasPos := false, false
	for _, f := range flows {
		if f.Amount < 0 {
			hasNeg = true
		}
		if f.Amount > 0 {
			hasPos = true
		}
	}
	return hasNeg && hasPos
}

func finite(r Result) Result {
	if math.IsNaN(r.Rate) || math.IsInf(r.Rate, 0) {
		return Result{}
	}
	return r
}

// schedule is a date-sorted flow list converted to year fractions.
type schedule struct {
	years   []float64
	amounts []float64
}

func newSchedule(sorted []model.CashFlow) schedule {
	base := calendarDay(sorted[0].Date)
	s := schedule{
		years:   make([]float64, len(sorted)),
		amounts: make([]float64, len(sorted)),
	}
	for i, f := range sorted {
		days := calendarDay(f.Date).Sub(base).Hours() / 24
		s.years[i] = days / daysPerYear
		s.amounts[i] = f.Amount
	}
	return s
}

// calendarDay drops the time of day, keeping the date as written in its own location.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// npv returns NPV(rate) and its analytic derivative.
func (s schedule) npv(rate float64) (float64, float64) {
	base := 1 + rate
	var value, derivative float64
	for i, amount := range s.amounts {
		y := s.years[i]
		discount := math.Pow(base, y)
		value += amount / discount
		derivative -= y * amount / (discount * base)
	}
	return value, derivative
}

func clamp(rate float64) float64 {
	return math.Max(MinRate, math.Min(MaxRate, rate))
}

// newton returns the last iterate and whether it converged.
func (s schedule) newton() (float64, bool) {
	rate := InitialGuess
	for range MaxIterations {
		value, derivative := s.npv(rate)
		if math.IsNaN(value) || math.IsNaN(derivative) {
			return rate, false
		}
		if math.Abs(value) < Tolerance {
			return rate, true
		}
		if math.Abs(derivative) < Tolerance {
			return rate, false
		}

		next := clamp(rate - value/derivative)
		pinned := next == MinRate || next == MaxRate
		if math.Abs(next-rate) < Tolerance && !pinned {
			return next, true
		}
		rate = next
	}
	return rate, false
}

// bisect searches the clamping band for a sign change of NPV.
func (s schedule) bisect() (float64, bool) {
	lo, hi := MinRate, MaxRate
	fLo, _ := s.npv(lo)
	fHi, _ := s.npv(hi)
	if math.IsNaN(fLo) || math.IsNaN(fHi) || fLo*fHi > 0 {
		return 0, false
	}
	if fLo == 0 {
		return lo, true
	}
	if fHi == 0 {
		return hi, true
	}

	for range bisectionIterations {
		mid := (lo + hi) / 2
		fMid, _ := s.npv(mid)
		if math.IsNaN(fMid) {
			return 0, false
		}
		if math.Abs(fMid) < Tolerance || (hi-lo)/2 < Tolerance {
			return mid, true
		}
		if fMid*fLo < 0 {
			hi = mid
		} else {
			lo = mid
			fLo = fMid
		}
	}
	return (lo + hi) / 2, true
}
