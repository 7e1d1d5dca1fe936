package testutil

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Wealth-Tracker-Backend/internal/matching"
	"github.com/ndewijer/Wealth-Tracker-Backend/internal/model"
)

// FundCatalog is a small scheme catalog with real MFAPI scheme codes.
func FundCatalog() []matching.Entry {
	return []matching.Entry{
		{Name: "HDFC Top 100 Fund Direct Plan Growth", Code: "119018"},
		{Name: "Axis Bluechip Fund Direct Plan Growth", Code: "120465"},
		{Name: "Parag Parikh Flexi Cap Fund Direct Plan Growth", Code: "122639"},
	}
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Buy creates a buy transaction.
func Buy(class model.InstrumentClass, instrument string, units, amount float64, date time.Time) model.Transaction {
	return newTransaction(class, instrument, "BUY", units, amount, date)
}

// Sell creates a sell transaction.
func Sell(class model.InstrumentClass, instrument string, units, amount float64, date time.Time) model.Transaction {
	return newTransaction(class, instrument, "SELL", units, amount, date)
}

func newTransaction(class model.InstrumentClass, instrument, order string, units, amount float64, date time.Time) model.Transaction {
	currency := "USD"
	if class == model.ClassMutualFund {
		currency = "INR"
	}
	return model.Transaction{
		Source:     "test",
		Class:      class,
		Instrument: instrument,
		Order:      order,
		Units:      decimal.NewFromFloat(units),
		Amount:     decimal.NewFromFloat(amount),
		Currency:   currency,
		Date:       date,
	}
}

// KuveraCSV is a Kuvera export with one open and one fully redeemed fund.
const KuveraCSV = `Date,Folio Number,Name of the Fund,Order,Units,NAV,Amount (INR)
2023-01-02,1001,HDFC Top 100 Fund - Direct Plan,buy,10,100,1000
2023-02-01,1002,Axis Bluechip Fund - Direct Growth,purchase,5,40,200
2023-08-01,1002,Axis Bluechip Fund - Direct Growth,redeem,5,50,250
`

// IBKRCSV is an IBKR trade export with a single open position.
const IBKRCSV = `Symbol,Buy/Sell,Quantity,TradePrice,Proceeds,IBCommission,FifoPnlRealized,TradeDate,CurrencyPrimary
AAPL,BUY,10,100,-1000,-1,0,20230102,USD
`
