package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/ndewijer/Wealth-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Wealth-Tracker-Backend/internal/model"
)

// Interactive Brokers flex query trade columns.
const (
	ibkrSymbol     = "Symbol"
	ibkrBuySell    = "Buy/Sell"
	ibkrQuantity   = "Quantity"
	ibkrPrice      = "TradePrice"
	ibkrProceeds   = "Proceeds"
	ibkrCommission = "IBCommission"
	ibkrRealized   = "FifoPnlRealized"
	ibkrTradeDate  = "TradeDate"
	ibkrDateTime   = "Date/Time"
	ibkrCurrency   = "CurrencyPrimary"
	ibkrAltCcy     = "Currency"
	ibkrAssetClass = "AssetClass"
)

// IBKRParser reads Interactive Brokers trade exports.
// Instruments are keyed by ticker symbol exactly as reported.
type IBKRParser struct{}

// NewIBKRParser creates a new IBKRParser.
func NewIBKRParser() *IBKRParser {
	return &IBKRParser{}
}

// Parse implements Parser.
//
// Field mapping:
//   - Amount: |Proceeds|, or |Quantity × TradePrice| when proceeds are blank
//   - Commission: |IBCommission| (IBKR reports fees as negatives)
//   - RealizedPnL: FifoPnlRealized as reported
//   - Date: TradeDate, falling back to the Date/Time column
func (p *IBKRParser) Parse(r io.Reader) ([]model.Transaction, error) {
	t, err := readTable(r, BrokerIBKR, []string{ibkrSymbol, ibkrBuySell, ibkrQuantity})
	if err != nil {
		return nil, err
	}
	if !t.has(ibkrTradeDate) && !t.has(ibkrDateTime) {
		return nil, fmt.Errorf("%s parser: %w: missing %s", BrokerIBKR, apperrors.ErrInvalidCSVHeaders, ibkrTradeDate)
	}

	transactions := make([]model.Transaction, 0, len(t.rows))
	for _, row := range t.rows {
		symbol := t.get(row, ibkrSymbol)
		if symbol == "" {
			continue
		}

		quantity := parseDecimal(t.get(row, ibkrQuantity))
		amount := parseDecimal(t.get(row, ibkrProceeds)).Abs()
		if amount.IsZero() {
			amount = quantity.Mul(parseDecimal(t.get(row, ibkrPrice))).Abs()
		}

		date := ParseDate(t.get(row, ibkrTradeDate))
		if date.IsZero() {
			date = ParseDate(t.get(row, ibkrDateTime))
		}

		currency := t.get(row, ibkrCurrency)
		if currency == "" {
			currency = t.get(row, ibkrAltCcy)
		}
		if currency == "" {
			currency = "USD"
		}

		class := model.ClassStock
		if strings.EqualFold(t.get(row, ibkrAssetClass), "CRYPTO") {
			class = model.ClassCrypto
		}

		transactions = append(transactions, model.Transaction{
			Source:      BrokerIBKR,
			Class:       class,
			Instrument:  symbol,
			Order:       t.get(row, ibkrBuySell),
			Units:       quantity.Abs(),
			Amount:      amount,
			Commission:  parseDecimal(t.get(row, ibkrCommission)).Abs(),
			RealizedPnL: parseDecimal(t.get(row, ibkrRealized)),
			Currency:    strings.ToUpper(currency),
			Date:        date,
		})
	}
	return transactions, nil
}
