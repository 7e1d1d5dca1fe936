package parser

import (
	"io"

	"github.com/ndewijer/Wealth-Tracker-Backend/internal/model"
)

// Kuvera export columns.
const (
	kuveraDate   = "Date"
	kuveraFund   = "Name of the Fund"
	kuveraOrder  = "Order"
	kuveraUnits  = "Units"
	kuveraNAV    = "NAV"
	kuveraAmount = "Amount (INR)"
)

// KuveraParser reads Kuvera mutual-fund transaction exports.
// Instruments are keyed by fund name; amounts are in INR.
type KuveraParser struct{}

// NewKuveraParser creates a new KuveraParser.
func NewKuveraParser() *KuveraParser {
	return &KuveraParser{}
}

// Parse implements Parser. Rows without a fund name are skipped.
// When the amount column is blank it is derived from units × NAV.
func (p *KuveraParser) Parse(r io.Reader) ([]model.Transaction, error) {
	t, err := readTable(r, BrokerKuvera, []string{kuveraDate, kuveraFund, kuveraOrder, kuveraUnits, kuveraAmount})
	if err != nil {
		return nil, err
	}

	transactions := make([]model.Transaction, 0, len(t.rows))
	for _, row := range t.rows {
		fund := t.get(row, kuveraFund)
		if fund == "" {
			continue
		}

		units := parseDecimal(t.get(row, kuveraUnits)).Abs()
		amount := parseDecimal(t.get(row, kuveraAmount)).Abs()
		if amount.IsZero() {
			amount = units.Mul(parseDecimal(t.get(row, kuveraNAV))).Abs()
		}

		transactions = append(transactions, model.Transaction{
			Source:     BrokerKuvera,
			Class:      model.ClassMutualFund,
			Instrument: fund,
			Order:      t.get(row, kuveraOrder),
			Units:      units,
			Amount:     amount,
			Currency:   "INR",
			Date:       ParseDate(t.get(row, kuveraDate)),
		})
	}
	return transactions, nil
}
