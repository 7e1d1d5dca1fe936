package service

import (
	"cmp"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Wealth-Tracker-Backend/internal/model"
)

// DefaultLiquidationEpsilon is the unit count at or below which a position counts as fully sold.
var DefaultLiquidationEpsilon = decimal.RequireFromString("0.001")

// UnknownOrderPolicy decides how transactions with an unrecognized order type are folded.
type UnknownOrderPolicy string

const (
	// UnknownOrderAsBuy applies buy semantics (the historical behavior).
	UnknownOrderAsBuy UnknownOrderPolicy = "buy"
	// UnknownOrderSkip ignores the transaction entirely.
	UnknownOrderSkip UnknownOrderPolicy = "skip"
)

// AggregateOptions controls how transactions are folded into positions.
type AggregateOptions struct {
	Epsilon      decimal.Decimal
	UnknownOrder UnknownOrderPolicy
}

// DefaultAggregateOptions returns the epsilon of 0.001 units and buy semantics for unknown orders.
func DefaultAggregateOptions() AggregateOptions {
	return AggregateOptions{
		Epsilon:      DefaultLiquidationEpsilon,
		UnknownOrder: UnknownOrderAsBuy,
	}
}

// Aggregation is the output of AggregatePositions.
type Aggregation struct {
	// Positions holds open positions sorted by class, then instrument key.
	Positions []model.Position
	// Liquidated lists instrument keys dropped because their units fell to epsilon or below.
	Liquidated []string
	// UnknownOrders counts transactions whose order type was not recognized.
	UnknownOrders int
	// CurrencyMismatches lists instrument keys that received transactions in
	// more than one currency. Those transactions are summed as-is in the
	// position's currency, which is taken from the first transaction.
	CurrencyMismatches []string
}

// AggregatePositions groups transactions by instrument key and folds each group into a Position.
//
// Grouping is an exact string match on the instrument key. Units and amounts
// are signed running sums; commission always adds its magnitude and the
// broker-reported realized P&L is summed as-is. Totals do not depend on the
// order of the input.
//
// Every dated transaction also contributes a cash flow: a buy is an outflow of
// amount + commission, a sell an inflow of amount − commission. Transactions
// without a date still count toward totals but never produce a cash flow.
//
// Positions with TotalUnits ≤ opts.Epsilon are dropped. Currencies are never
// converted here; keys seen in more than one currency are reported in
// Aggregation.CurrencyMismatches.
func AggregatePositions(transactions []model.Transaction, opts AggregateOptions) Aggregation {
	if opts.UnknownOrder == "" {
		opts.UnknownOrder = UnknownOrderAsBuy
	}

	var result Aggregation
	positions := make(map[string]*model.Position)
	mismatched := make(map[string]bool)

	for _, tx := range transactions {
		order, ok := model.ParseOrderType(tx.Order)
		if !ok {
			result.UnknownOrders++
			if opts.UnknownOrder == UnknownOrderSkip {
				continue
			}
			order = model.OrderBuy
		}

		p, exists := positions[tx.Instrument]
		if !exists {
			p = &model.Position{
				InstrumentKey: tx.Instrument,
				Class:         tx.Class,
				Currency:      tx.Currency,
			}
			positions[tx.Instrument] = p
		} else if tx.Currency != "" && p.Currency != "" && !strings.EqualFold(tx.Currency, p.Currency) {
			mismatched[tx.Instrument] = true
		}

		applyTransaction(p, tx, order)
	}

	for _, p := range positions {
		if p.TotalUnits.LessThanOrEqual(opts.Epsilon) {
			result.Liquidated = append(result.Liquidated, p.InstrumentKey)
			continue
		}
		result.Positions = append(result.Positions, *p)
	}

	slices.SortFunc(result.Positions, func(a, b model.Position) int {
		return cmp.Or(
			cmp.Compare(a.Class, b.Class),
			cmp.Compare(a.InstrumentKey, b.InstrumentKey),
		)
	})
	slices.Sort(result.Liquidated)

	for key := range mismatched {
		result.CurrencyMismatches = append(result.CurrencyMismatches, key)
	}
	slices.Sort(result.CurrencyMismatches)

	return result
}

func applyTransaction(p *model.Position, tx model.Transaction, order model.OrderType) {
	units := tx.Units.Abs()
	amount := tx.Amount.Abs()
	commission := tx.Commission.Abs()

	var flow model.CashFlow
	switch order {
	case model.OrderSell:
		p.TotalUnits = p.TotalUnits.Sub(units)
		p.TotalAmount = p.TotalAmount.Sub(amount)
		// Net proceeds; fees larger than the proceeds leave a net outflow.
		flow = model.CashFlow{Date: tx.Date, Amount: amount.Sub(commission).InexactFloat64()}
	default:
		p.TotalUnits = p.TotalUnits.Add(units)
		p.TotalAmount = p.TotalAmount.Add(amount)
		flow = model.Outflow(tx.Date, amount.Add(commission).InexactFloat64())
	}

	p.TotalCommission = p.TotalCommission.Add(commission)
	p.RealizedPnL = p.RealizedPnL.Add(tx.RealizedPnL)
	p.TransactionCount++

	if !tx.HasDate() {
		return
	}
	p.CashFlows = append(p.CashFlows, flow)
	if p.FirstDate.IsZero() || tx.Date.Before(p.FirstDate) {
		p.FirstDate = tx.Date
	}
	if tx.Date.After(p.LastDate) {
		p.LastDate = tx.Date
	}
}
