package model

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Position is the folded state of every transaction for one instrument.
type Position struct {
	InstrumentKey   string          `json:"instrumentKey"`
	Class           InstrumentClass `json:"class"`
	Currency        string          `json:"currency"`
	TotalUnits      decimal.Decimal `json:"totalUnits"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	TotalCommission decimal.Decimal `json:"totalCommission"`
	RealizedPnL     decimal.Decimal `json:"realizedPnl"`
	// CashFlows holds the signed flows of every dated transaction, before any terminal valuation.
	CashFlows        []CashFlow `json:"cashFlows"`
	TransactionCount int        `json:"transactionCount"`
	FirstDate        time.Time  `json:"firstDate"`
	LastDate         time.Time  `json:"lastDate"`
}

// AverageUnitPrice returns (|totalAmount| + totalCommission) / totalUnits, or 0 when no units are held.
func (p Position) AverageUnitPrice() decimal.Decimal {
	if !p.TotalUnits.IsPositive() {
		return decimal.Zero
	}
	return p.TotalAmount.Abs().Add(p.TotalCommission).Div(p.TotalUnits)
}

// Warning flags attached to a valued position.
const (
	WarningMissingPrice  = "missing_price"
	WarningMissingRate   = "missing_rate"
	WarningXIRRUndefined = "xirr_undefined"
	// WarningNoCostBasis marks a position whose net investment is zero or
	// negative (more cash taken out than put in); its percentage return is reported as 0.
	WarningNoCostBasis = "no_cost_basis"
)

// ValuedPosition is a Position combined with current-value fields.
// Monetary values are expressed in the summary's base currency.
type ValuedPosition struct {
	Position
	Policy           string          `json:"policy"`
	CurrentPrice     decimal.Decimal `json:"currentPrice"`
	ExchangeRate     decimal.Decimal `json:"exchangeRate"`
	CurrentValue     decimal.Decimal `json:"currentValue"`
	NetInvestment    decimal.Decimal `json:"netInvestment"`
	AverageUnitPrice decimal.Decimal `json:"averageUnitPrice"`
	UnrealizedGain   decimal.Decimal `json:"unrealizedGain"`
	ProfitLoss       decimal.Decimal `json:"profitLoss"`
	ProfitLossPct    float64         `json:"profitLossPercent"`
	XIRRPercent      float64         `json:"xirrPercent"`
	XIRRDefined      bool            `json:"xirrDefined"`
	Warnings         []string        `json:"warnings,omitempty"`
}

// HasWarning reports whether the given warning flag is set.
func (v ValuedPosition) HasWarning(flag string) bool {
	return slices.Contains(v.Warnings, flag)
}
