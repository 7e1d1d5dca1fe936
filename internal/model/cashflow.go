package model

import "time"

// CashFlow is a dated, signed monetary amount consumed by the XIRR solver.
//
// Sign convention:
//   - negative: money leaving the holder (purchases, fees)
//   - positive: money returning to the holder (sale or redemption proceeds,
//     and the synthetic terminal flow carrying the current market value)
//
// Producers must derive the sign from the order type, never from the amount
// reported by the broker.
type CashFlow struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// Outflow returns a cash flow for money leaving the holder.
// The magnitude of amount is used, so callers may pass broker-reported values as-is.
func Outflow(date time.Time, amount float64) CashFlow {
	if amount > 0 {
		amount = -amount
	}
	return CashFlow{Date: date, Amount: amount}
}

// Inflow returns a cash flow for money returning to the holder.
func Inflow(date time.Time, amount float64) CashFlow {
	if amount < 0 {
		amount = -amount
	}
	return CashFlow{Date: date, Amount: amount}
}
