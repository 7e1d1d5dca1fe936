package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioSummary is the rollup over a set of valued positions.
// It is recomputed from scratch on every request.
type PortfolioSummary struct {
	Currency          string          `json:"currency"`
	AsOf              time.Time       `json:"asOf"`
	PositionCount     int             `json:"positionCount"`
	TotalInvested     decimal.Decimal `json:"totalInvested"`
	TotalCurrentValue decimal.Decimal `json:"totalCurrentValue"`
	TotalProfitLoss   decimal.Decimal `json:"totalProfitLoss"`
	AbsoluteReturn    float64         `json:"absoluteReturn"` // totalProfitLoss / totalInvested × 100
	XIRRReturn        float64         `json:"xirrReturn"`     // portfolio-level money-weighted return, percent
	XIRRDefined       bool            `json:"xirrDefined"`
}

// Portfolio is the full output handed to the presentation layer.
type Portfolio struct {
	Summary   PortfolioSummary                     `json:"summary"`
	ByClass   map[InstrumentClass]PortfolioSummary `json:"byClass"`
	Positions []ValuedPosition                     `json:"positions"`
}
