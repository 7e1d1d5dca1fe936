package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Wealth-Tracker-Backend/internal/model"
	"github.com/ndewijer/Wealth-Tracker-Backend/internal/testutil"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func positionByKey(t *testing.T, positions []model.Position, key string) model.Position {
	t.Helper()
	for _, p := range positions {
		if p.InstrumentKey == key {
			return p
		}
	}
	t.Fatalf("Position %q not found in %d positions", key, len(positions))
	return model.Position{}
}

// TestAggregatePositions_Commutative tests that fold order does not change totals.
//
// WHY: Broker exports are not guaranteed to be sorted; a position must not
// depend on the order rows happen to appear in.
func TestAggregatePositions_Commutative(t *testing.T) {
	b1 := testutil.Buy(model.ClassStock, "AAPL", 10, 1000, testutil.Date(2023, 1, 1))
	s1 := testutil.Sell(model.ClassStock, "AAPL", 4, 600, testutil.Date(2023, 6, 1))
	b2 := testutil.Buy(model.ClassStock, "AAPL", 5, 550, testutil.Date(2023, 3, 1))
	b1.Commission = dec("1.5")
	s1.Commission = dec("-2") // sign is ignored
	s1.RealizedPnL = dec("200")

	orders := map[string][]model.Transaction{
		"B1 S1 B2": {b1, s1, b2},
		"B1 B2 S1": {b1, b2, s1},
		"S1 B2 B1": {s1, b2, b1},
	}

	want := AggregatePositions(orders["B1 S1 B2"], DefaultAggregateOptions()).Positions[0]

	if !want.TotalUnits.Equal(dec("11")) {
		t.Errorf("Expected 11 units, got %s", want.TotalUnits)
	}
	if !want.TotalAmount.Equal(dec("950")) {
		t.Errorf("Expected total amount 950, got %s", want.TotalAmount)
	}
	if !want.TotalCommission.Equal(dec("3.5")) {
		t.Errorf("Expected commission magnitude 3.5, got %s", want.TotalCommission)
	}
	if !want.RealizedPnL.Equal(dec("200")) {
		t.Errorf("Expected realized P&L 200, got %s", want.RealizedPnL)
	}

	for name, txs := range orders {
		t.Run(name, func(t *testing.T) {
			got := AggregatePositions(txs, DefaultAggregateOptions()).Positions[0]

			if !got.TotalUnits.Equal(want.TotalUnits) ||
				!got.TotalAmount.Equal(want.TotalAmount) ||
				!got.TotalCommission.Equal(want.TotalCommission) ||
				!got.RealizedPnL.Equal(want.RealizedPnL) {
				t.Errorf("Expected %+v, got %+v", want, got)
			}
			if !got.FirstDate.Equal(testutil.Date(2023, 1, 1)) || !got.LastDate.Equal(testutil.Date(2023, 6, 1)) {
				t.Errorf("Unexpected date range %v - %v", got.FirstDate, got.LastDate)
			}
		})
	}
}

// TestAggregatePositions_DropsLiquidated tests the epsilon rule.
//
// WHY: A fully sold instrument must vanish from the dashboard instead of
// showing as a zero row, including when rounding leaves dust units behind.
func TestAggregatePositions_DropsLiquidated(t *testing.T) {
	tests := []struct {
		name      string
		sellUnits float64
		wantKept  bool
	}{
		{name: "exactly zero units", sellUnits: 10, wantKept: false},
		{name: "dust below epsilon", sellUnits: 9.9995, wantKept: false},
		{name: "exactly epsilon", sellUnits: 9.999, wantKept: false},
		{name: "oversold", sellUnits: 12, wantKept: false},
		{name: "just above epsilon", sellUnits: 9.99, wantKept: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txs := []model.Transaction{
				testutil.Buy(model.ClassMutualFund, "Fund A", 10, 1000, testutil.Date(2023, 1, 1)),
				testutil.Sell(model.ClassMutualFund, "Fund A", tt.sellUnits, 1100, testutil.Date(2023, 6, 1)),
				testutil.Buy(model.ClassMutualFund, "Fund B", 1, 100, testutil.Date(2023, 1, 1)),
			}

			agg := AggregatePositions(txs, DefaultAggregateOptions())

			kept := false
			for _, p := range agg.Positions {
				if p.InstrumentKey == "Fund A" {
					kept = true
				}
			}
			if kept != tt.wantKept {
				t.Errorf("Expected kept=%v, got positions %+v", tt.wantKept, agg.Positions)
			}
			if !tt.wantKept && (len(agg.Liquidated) != 1 || agg.Liquidated[0] != "Fund A") {
				t.Errorf("Expected Fund A reported as liquidated, got %v", agg.Liquidated)
			}
			positionByKey(t, agg.Positions, "Fund B")
		})
	}
}

func TestAggregatePositions_OrderTypes(t *testing.T) {
	t.Run("order type is case-insensitive", func(t *testing.T) {
		txs := []model.Transaction{
			testutil.Buy(model.ClassMutualFund, "Fund", 10, 1000, testutil.Date(2023, 1, 1)),
			testutil.Buy(model.ClassMutualFund, "Fund", 5, 500, testutil.Date(2023, 2, 1)),
			testutil.Sell(model.ClassMutualFund, "Fund", 3, 330, testutil.Date(2023, 3, 1)),
			testutil.Sell(model.ClassMutualFund, "Fund", 2, 220, testutil.Date(2023, 4, 1)),
		}
		txs[0].Order = "buy"
		txs[1].Order = "Purchase"
		txs[2].Order = "REDEEM"
		txs[3].Order = "sell"

		agg := AggregatePositions(txs, DefaultAggregateOptions())

		p := agg.Positions[0]
		if !p.TotalUnits.Equal(dec("10")) || !p.TotalAmount.Equal(dec("950")) {
			t.Errorf("Expected 10 units / 950, got %s / %s", p.TotalUnits, p.TotalAmount)
		}
		if agg.UnknownOrders != 0 {
			t.Errorf("Expected no unknown orders, got %d", agg.UnknownOrders)
		}
	})

	t.Run("unknown order defaults to buy", func(t *testing.T) {
		tx := testutil.Buy(model.ClassStock, "AAPL", 2, 300, testutil.Date(2023, 1, 1))
		tx.Order = "DIVIDEND REINVEST"

		agg := AggregatePositions([]model.Transaction{tx}, DefaultAggregateOptions())

		if len(agg.Positions) != 1 || !agg.Positions[0].TotalUnits.Equal(dec("2")) {
			t.Fatalf("Expected buy semantics, got %+v", agg.Positions)
		}
		if agg.UnknownOrders != 1 {
			t.Errorf("Expected 1 unknown order, got %d", agg.UnknownOrders)
		}
	})

	t.Run("unknown order can be skipped", func(t *testing.T) {
		unknown := testutil.Buy(model.ClassStock, "AAPL", 2, 300, testutil.Date(2023, 1, 1))
		unknown.Order = "transfer"
		known := testutil.Buy(model.ClassStock, "AAPL", 1, 150, testutil.Date(2023, 1, 2))

		opts := DefaultAggregateOptions()
		opts.UnknownOrder = UnknownOrderSkip
		agg := AggregatePositions([]model.Transaction{unknown, known}, opts)

		p := agg.Positions[0]
		if !p.TotalUnits.Equal(dec("1")) || p.TransactionCount != 1 {
			t.Errorf("Expected only the known buy, got %+v", p)
		}
		if agg.UnknownOrders != 1 {
			t.Errorf("Expected 1 unknown order, got %d", agg.UnknownOrders)
		}
	})
}

// TestAggregatePositions_CurrencyMismatch tests mixed-currency transactions for one key.
//
// WHY: amounts are summed without conversion, so a key traded in two
// currencies must be reported instead of silently producing a blended total.
func TestAggregatePositions_CurrencyMismatch(t *testing.T) {
	t.Run("reports keys seen in more than one currency", func(t *testing.T) {
		// Setup
		usd := testutil.Buy(model.ClassStock, "AAPL", 10, 1000, testutil.Date(2023, 1, 1))
		inr := testutil.Buy(model.ClassStock, "AAPL", 10, 80000, testutil.Date(2023, 2, 1))
		inr.Currency = "INR"
		other := testutil.Buy(model.ClassStock, "MSFT", 1, 300, testutil.Date(2023, 1, 1))

		// Execute
		agg := AggregatePositions([]model.Transaction{usd, inr, other}, DefaultAggregateOptions())

		// Assert
		if len(agg.CurrencyMismatches) != 1 || agg.CurrencyMismatches[0] != "AAPL" {
			t.Errorf("Expected AAPL reported as mismatched, got %v", agg.CurrencyMismatches)
		}
		p := positionByKey(t, agg.Positions, "AAPL")
		if p.Currency != "USD" {
			t.Errorf("Expected currency of the first transaction, got %s", p.Currency)
		}
	})

	t.Run("case differences are not a mismatch", func(t *testing.T) {
		a := testutil.Buy(model.ClassStock, "AAPL", 1, 100, testutil.Date(2023, 1, 1))
		b := testutil.Buy(model.ClassStock, "AAPL", 1, 100, testutil.Date(2023, 1, 2))
		b.Currency = "usd"

		agg := AggregatePositions([]model.Transaction{a, b}, DefaultAggregateOptions())

		if len(agg.CurrencyMismatches) != 0 {
			t.Errorf("Expected no mismatches, got %v", agg.CurrencyMismatches)
		}
	})
}

// TestAggregatePositions_CashFlows tests flow signs and dates.
//
// WHY: Flow signs come from the order type alone. A broker that reports
// purchase amounts as negative must not flip the sign of the flow.
func TestAggregatePositions_CashFlows(t *testing.T) {
	buy := testutil.Buy(model.ClassStock, "AAPL", 10, -1000, testutil.Date(2023, 1, 1))
	buy.Commission = dec("1")
	sell := testutil.Sell(model.ClassStock, "AAPL", 4, 600, testutil.Date(2023, 6, 1))
	sell.Commission = dec("1")
	undated := testutil.Buy(model.ClassStock, "AAPL", 1, 100, testutil.Date(2023, 1, 1))
	undated.Date = time.Time{}

	agg := AggregatePositions([]model.Transaction{buy, sell, undated}, DefaultAggregateOptions())
	p := agg.Positions[0]

	if len(p.CashFlows) != 2 {
		t.Fatalf("Expected 2 dated flows, got %d", len(p.CashFlows))
	}
	if p.CashFlows[0].Amount != -1001 {
		t.Errorf("Expected buy outflow -1001, got %v", p.CashFlows[0].Amount)
	}
	if p.CashFlows[1].Amount != 599 {
		t.Errorf("Expected sell inflow 599, got %v", p.CashFlows[1].Amount)
	}
	if p.TransactionCount != 3 {
		t.Errorf("Expected undated transaction to count toward totals, got %d", p.TransactionCount)
	}
	if !p.TotalUnits.Equal(dec("7")) {
		t.Errorf("Expected 7 units, got %s", p.TotalUnits)
	}
}

func TestAggregatePositions_GroupsByExactKey(t *testing.T) {
	txs := []model.Transaction{
		testutil.Buy(model.ClassMutualFund, "HDFC Top 100", 1, 100, testutil.Date(2023, 1, 1)),
		testutil.Buy(model.ClassMutualFund, "HDFC Top 100 ", 1, 100, testutil.Date(2023, 1, 1)),
		testutil.Buy(model.ClassStock, "AAPL", 1, 100, testutil.Date(2023, 1, 1)),
	}

	agg := AggregatePositions(txs, DefaultAggregateOptions())

	if len(agg.Positions) != 3 {
		t.Fatalf("Expected 3 positions, got %d", len(agg.Positions))
	}
	// sorted by class, then key
	if agg.Positions[0].Class != model.ClassMutualFund || agg.Positions[2].InstrumentKey != "AAPL" {
		t.Errorf("Unexpected ordering: %s, %s, %s",
			agg.Positions[0].InstrumentKey, agg.Positions[1].InstrumentKey, agg.Positions[2].InstrumentKey)
	}
}

func TestPosition_AverageUnitPrice(t *testing.T) {
	txs := []model.Transaction{
		testutil.Buy(model.ClassStock, "AAPL", 4, 400, testutil.Date(2023, 1, 1)),
	}
	txs[0].Commission = dec("2")

	p := AggregatePositions(txs, DefaultAggregateOptions()).Positions[0]

	if !p.AverageUnitPrice().Equal(dec("100.5")) {
		t.Errorf("Expected average price 100.5, got %s", p.AverageUnitPrice())
	}
	if !(model.Position{}).AverageUnitPrice().IsZero() {
		t.Error("Expected zero average price for an empty position")
	}
}
