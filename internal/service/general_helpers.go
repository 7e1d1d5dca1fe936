package service

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Wealth-Tracker-Backend/internal/model"
)

// RoundingPrecision is the scale factor used by round (two decimal places).
const RoundingPrecision = 100

// displayPlaces is the number of decimal places monetary values carry in API responses.
const displayPlaces = 2

// pricePlaces is the number of decimal places unit prices carry in API responses.
// Sub-cent prices must stay distinguishable from a missing (zero) price.
const pricePlaces = 8

// round rounds a float64 value to two decimal places using the package RoundingPrecision constant.
// It is used for percentages in API responses; calculations always run unrounded.
//
// Example:
//
//	round(123.456789)  // returns 123.46
//	round(0.005)       // returns 0.01
//	round(1.994)       // returns 1.99
func round(value float64) float64 {
	return math.Round(value*RoundingPrecision) / RoundingPrecision
}

// RoundReport returns a copy of report with every monetary total and
// percentage rounded to two decimal places and unit prices to eight.
// Units are left untouched.
// Rounding is applied on output only, never between calculation steps.
func RoundReport(report PortfolioReport) PortfolioReport {
	out := report
	out.Summary = roundSummary(report.Summary)

	if report.ByClass != nil {
		out.ByClass = make(map[model.InstrumentClass]model.PortfolioSummary, len(report.ByClass))
		for class, s := range report.ByClass {
			out.ByClass[class] = roundSummary(s)
		}
	}

	out.Positions = make([]model.ValuedPosition, len(report.Positions))
	for i, v := range report.Positions {
		out.Positions[i] = roundValuedPosition(v)
	}
	return out
}

func roundSummary(s model.PortfolioSummary) model.PortfolioSummary {
	s.TotalInvested = s.TotalInvested.Round(displayPlaces)
	s.TotalCurrentValue = s.TotalCurrentValue.Round(displayPlaces)
	s.TotalProfitLoss = s.TotalProfitLoss.Round(displayPlaces)
	s.AbsoluteReturn = round(s.AbsoluteReturn)
	s.XIRRReturn = round(s.XIRRReturn)
	return s
}

func roundValuedPosition(v model.ValuedPosition) model.ValuedPosition {
	v.Position = roundPosition(v.Position)
	v.CurrentPrice = v.CurrentPrice.Round(pricePlaces)
	v.CurrentValue = v.CurrentValue.Round(displayPlaces)
	v.NetInvestment = v.NetInvestment.Round(displayPlaces)
	v.AverageUnitPrice = v.AverageUnitPrice.Round(pricePlaces)
	v.UnrealizedGain = v.UnrealizedGain.Round(displayPlaces)
	v.ProfitLoss = v.ProfitLoss.Round(displayPlaces)
	v.ProfitLossPct = round(v.ProfitLossPct)
	v.XIRRPercent = round(v.XIRRPercent)
	return v
}

// RoundPositions rounds the monetary fields of unvalued positions for display.
func RoundPositions(positions []model.Position) []model.Position {
	out := make([]model.Position, len(positions))
	for i, p := range positions {
		out[i] = roundPosition(p)
	}
	return out
}

func roundPosition(p model.Position) model.Position {
	p.TotalAmount = p.TotalAmount.Round(displayPlaces)
	p.TotalCommission = p.TotalCommission.Round(displayPlaces)
	p.RealizedPnL = p.RealizedPnL.Round(displayPlaces)
	flows := make([]model.CashFlow, len(p.CashFlows))
	for i, f := range p.CashFlows {
		flows[i] = model.CashFlow{Date: f.Date, Amount: round(f.Amount)}
	}
	p.CashFlows = flows
	return p
}

// RoundPrices rounds resolved unit prices to eight decimal places for display.
func RoundPrices(prices map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(prices))
	for key, price := range prices {
		out[key] = price.Round(pricePlaces)
	}
	return out
}
