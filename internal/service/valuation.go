package service

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Wealth-Tracker-Backend/internal/model"
	"github.com/ndewijer/Wealth-Tracker-Backend/internal/xirr"
)

var hundred = decimal.NewFromInt(100)

// Valuation is the cost-basis outcome of applying a ValuationPolicy to one position.
type Valuation struct {
	CurrentValue   decimal.Decimal
	NetInvestment  decimal.Decimal
	UnrealizedGain decimal.Decimal
	ProfitLoss     decimal.Decimal
}

// ValuationPolicy computes cost basis and profit for a position at a given price.
// One policy is selected per instrument class and never mixed for the same instrument.
type ValuationPolicy interface {
	Name() string
	Value(p model.Position, price decimal.Decimal) Valuation
}

// FundValuationPolicy is the simple mutual-fund model: net cash invested is the cost basis.
//
//	netInvestment = totalAmount
//	profitLoss    = currentValue − totalAmount
type FundValuationPolicy struct{}

func (FundValuationPolicy) Name() string { return "fund" }

func (FundValuationPolicy) Value(p model.Position, price decimal.Decimal) Valuation {
	current := price.Mul(p.TotalUnits)
	gain := current.Sub(p.TotalAmount)
	return Valuation{
		CurrentValue:   current,
		NetInvestment:  p.TotalAmount,
		UnrealizedGain: gain,
		ProfitLoss:     gain,
	}
}

// BrokerValuationPolicy is the brokerage model where fees are part of the cost basis
// and the feed reports realized P&L separately.
//
//	netInvestment  = |totalAmount| + totalCommission
//	unrealizedGain = currentValue − totalCommission − |totalAmount|
//	profitLoss     = unrealizedGain + realizedPnL
type BrokerValuationPolicy struct{}

func (BrokerValuationPolicy) Name() string { return "broker" }

func (BrokerValuationPolicy) Value(p model.Position, price decimal.Decimal) Valuation {
	current := price.Mul(p.TotalUnits)
	invested := p.TotalAmount.Abs().Add(p.TotalCommission)
	gain := current.Sub(invested)
	return Valuation{
		CurrentValue:   current,
		NetInvestment:  invested,
		UnrealizedGain: gain,
		ProfitLoss:     gain.Add(p.RealizedPnL),
	}
}

// PolicyFor returns the valuation policy for an instrument class.
// Mutual funds use the fund model; stocks, crypto and anything else use the broker model.
func PolicyFor(class model.InstrumentClass) ValuationPolicy {
	if class == model.ClassMutualFund {
		return FundValuationPolicy{}
	}
	return BrokerValuationPolicy{}
}

// ValuationInput bundles everything ValuePortfolio needs. Prices are keyed by
// instrument key and expressed in the instrument's own currency; Rates map a
// currency code to the number of base-currency units per unit of that currency.
type ValuationInput struct {
	Positions    []model.Position
	Prices       map[string]decimal.Decimal
	Rates        map[string]decimal.Decimal
	BaseCurrency string
	AsOf         time.Time
}

// ValuePortfolio values every position and rolls the results up into a portfolio.
//
// The transform is pure. A missing price values the position at zero and flags
// it with model.WarningMissingPrice. A missing exchange rate falls back to 1
// and flags model.WarningMissingRate. All monetary outputs, including the
// cash flows fed to the XIRR solver, are converted to the base currency.
//
// The portfolio XIRR is computed over the union of every position's cash flows
// plus a single terminal flow equal to the total current value, not by
// combining per-position rates.
func ValuePortfolio(in ValuationInput) model.Portfolio {
	base := strings.ToUpper(in.BaseCurrency)
	valued := make([]model.ValuedPosition, 0, len(in.Positions))
	for _, p := range in.Positions {
		valued = append(valued, valuePosition(p, in, base))
	}

	byClass := make(map[model.InstrumentClass]model.PortfolioSummary)
	grouped := make(map[model.InstrumentClass][]model.ValuedPosition)
	for _, v := range valued {
		grouped[v.Class] = append(grouped[v.Class], v)
	}
	for class, group := range grouped {
		byClass[class] = summarize(group, base, in.AsOf)
	}

	return model.Portfolio{
		Summary:   summarize(valued, base, in.AsOf),
		ByClass:   byClass,
		Positions: valued,
	}
}

func valuePosition(p model.Position, in ValuationInput, base string) model.ValuedPosition {
	var warnings []string

	price, ok := in.Prices[p.InstrumentKey]
	if !ok || !price.IsPositive() {
		price = decimal.Zero
		warnings = append(warnings, model.WarningMissingPrice)
	}

	rate := decimal.NewFromInt(1)
	if currency := strings.ToUpper(p.Currency); currency != "" && currency != base {
		if r, found := in.Rates[currency]; found && r.IsPositive() {
			rate = r
		} else {
			warnings = append(warnings, model.WarningMissingRate)
		}
	}

	converted := convertPosition(p, rate)
	policy := PolicyFor(p.Class)
	basePrice := price.Mul(rate)
	val := policy.Value(converted, basePrice)

	if !val.NetInvestment.IsPositive() {
		warnings = append(warnings, model.WarningNoCostBasis)
	}

	flows := withTerminalFlow(converted.CashFlows, val.CurrentValue, in.AsOf)
	result := xirr.Solve(flows)
	if !result.Defined {
		warnings = append(warnings, model.WarningXIRRUndefined)
	}

	return model.ValuedPosition{
		Position:         converted,
		Policy:           policy.Name(),
		CurrentPrice:     basePrice,
		ExchangeRate:     rate,
		CurrentValue:     val.CurrentValue,
		NetInvestment:    val.NetInvestment,
		AverageUnitPrice: converted.AverageUnitPrice(),
		UnrealizedGain:   val.UnrealizedGain,
		ProfitLoss:       val.ProfitLoss,
		ProfitLossPct:    percentOf(val.ProfitLoss, val.NetInvestment),
		XIRRPercent:      result.Percent(),
		XIRRDefined:      result.Defined,
		Warnings:         warnings,
	}
}

// convertPosition scales every monetary field and cash flow of p by rate.
func convertPosition(p model.Position, rate decimal.Decimal) model.Position {
	if rate.Equal(decimal.NewFromInt(1)) {
		p.CashFlows = append([]model.CashFlow(nil), p.CashFlows...)
		return p
	}

	p.TotalAmount = p.TotalAmount.Mul(rate)
	p.TotalCommission = p.TotalCommission.Mul(rate)
	p.RealizedPnL = p.RealizedPnL.Mul(rate)

	factor := rate.InexactFloat64()
	flows := make([]model.CashFlow, len(p.CashFlows))
	for i, f := range p.CashFlows {
		flows[i] = model.CashFlow{Date: f.Date, Amount: f.Amount * factor}
	}
	p.CashFlows = flows
	return p
}

// withTerminalFlow appends the current value as an inflow dated asOf.
// A zero value adds nothing to the NPV and is left out.
func withTerminalFlow(flows []model.CashFlow, value decimal.Decimal, asOf time.Time) []model.CashFlow {
	out := make([]model.CashFlow, 0, len(flows)+1)
	out = append(out, flows...)
	if value.IsPositive() {
		out = append(out, model.Inflow(asOf, value.InexactFloat64()))
	}
	return out
}

func summarize(positions []model.ValuedPosition, currency string, asOf time.Time) model.PortfolioSummary {
	summary := model.PortfolioSummary{
		Currency:      currency,
		AsOf:          asOf,
		PositionCount: len(positions),
	}

	var flows []model.CashFlow
	for _, v := range positions {
		summary.TotalInvested = summary.TotalInvested.Add(v.NetInvestment)
		summary.TotalCurrentValue = summary.TotalCurrentValue.Add(v.CurrentValue)
		summary.TotalProfitLoss = summary.TotalProfitLoss.Add(v.ProfitLoss)
		flows = append(flows, v.CashFlows...)
	}

	summary.AbsoluteReturn = percentOf(summary.TotalProfitLoss, summary.TotalInvested)

	result := xirr.Solve(withTerminalFlow(flows, summary.TotalCurrentValue, asOf))
	summary.XIRRReturn = result.Percent()
	summary.XIRRDefined = result.Defined

	return summary
}

// percentOf returns part / whole × 100, or 0 when whole is zero or negative.
// A negative base would flip the sign of the result.
func percentOf(part, whole decimal.Decimal) float64 {
	if !whole.IsPositive() {
		return 0
	}
	return part.Div(whole).Mul(hundred).InexactFloat64()
}
