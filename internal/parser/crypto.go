package parser

import (
	"io"
	"strings"

	"github.com/ndewijer/Wealth-Tracker-Backend/internal/model"
)

const (
	cryptoDate     = "Date"
	cryptoCoin     = "Coin"
	cryptoType     = "Type"
	cryptoQuantity = "Quantity"
	cryptoAmount   = "Amount"
	cryptoFee      = "Fee"
	cryptoCurrency = "Currency"
)

// CryptoParser reads a generic exchange trade export.
// Coins are keyed by their upper-cased symbol.
type CryptoParser struct{}

// NewCryptoParser creates a new CryptoParser.
func NewCryptoParser() *CryptoParser {
	return &CryptoParser{}
}

// Parse implements Parser. The quote currency defaults to USD.
func (p *CryptoParser) Parse(r io.Reader) ([]model.Transaction, error) {
	t, err := readTable(r, BrokerCrypto, []string{cryptoDate, cryptoCoin, cryptoType, cryptoQuantity, cryptoAmount})
	if err != nil {
		return nil, err
	}

	transactions := make([]model.Transaction, 0, len(t.rows))
	for _, row := range t.rows {
		coin := strings.ToUpper(t.get(row, cryptoCoin))
		if coin == "" {
			continue
		}

		currency := strings.ToUpper(t.get(row, cryptoCurrency))
		if currency == "" {
			currency = "USD"
		}

		transactions = append(transactions, model.Transaction{
			Source:     BrokerCrypto,
			Class:      model.ClassCrypto,
			Instrument: coin,
			Order:      t.get(row, cryptoType),
			Units:      parseDecimal(t.get(row, cryptoQuantity)).Abs(),
			Amount:     parseDecimal(t.get(row, cryptoAmount)).Abs(),
			Commission: parseDecimal(t.get(row, cryptoFee)).Abs(),
			Currency:   currency,
			Date:       ParseDate(t.get(row, cryptoDate)),
		})
	}
	return transactions, nil
}
