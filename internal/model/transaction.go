package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InstrumentClass identifies which dashboard and valuation policy an instrument belongs to.
type InstrumentClass string

const (
	ClassMutualFund InstrumentClass = "mutual_fund"
	ClassStock      InstrumentClass = "stock"
	ClassCrypto     InstrumentClass = "crypto"
)

// Valid reports whether c is one of the known instrument classes.
func (c InstrumentClass) Valid() bool {
	switch c {
	case ClassMutualFund, ClassStock, ClassCrypto:
		return true
	}
	return false
}

// OrderType is the normalized side of a transaction.
type OrderType string

const (
	OrderBuy  OrderType = "BUY"
	OrderSell OrderType = "SELL"
)

// ParseOrderType maps a broker-reported order string to an OrderType.
// Matching is case-insensitive: "buy" and "purchase" are buys, "sell" and "redeem"
// (including "redemption") are sells. The boolean is false for anything else.
func ParseOrderType(s string) (OrderType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy", "purchase":
		return OrderBuy, true
	case "sell", "redeem", "redemption":
		return OrderSell, true
	}
	return "", false
}

// Transaction is the canonical record every broker adapter produces.
// Units, Amount and Commission are non-negative magnitudes; the side comes from Order.
// A zero Date means the source date could not be parsed.
type Transaction struct {
	Source      string          `json:"source"`
	Class       InstrumentClass `json:"class"`
	Instrument  string          `json:"instrument"`
	Order       string          `json:"order"`
	Units       decimal.Decimal `json:"units"`
	Amount      decimal.Decimal `json:"amount"`
	Commission  decimal.Decimal `json:"commission"`
	RealizedPnL decimal.Decimal `json:"realizedPnl"`
	Currency    string          `json:"currency"`
	Date        time.Time       `json:"date"`
}

// HasDate reports whether the transaction carries a usable date for cash-flow construction.
func (t Transaction) HasDate() bool {
	return !t.Date.IsZero()
}
