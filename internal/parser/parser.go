// Package parser normalizes broker CSV exports into canonical transactions.
//
// Each broker format has its own adapter that looks columns up by header
// name. Rows never fall back to positional access; a file without the
// required headers is rejected as a whole.
package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Wealth-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Wealth-Tracker-Backend/internal/model"
)

// Broker format names accepted by ForBroker.
const (
	BrokerKuvera = "kuvera"
	BrokerIBKR   = "ibkr"
	BrokerCrypto = "crypto"
)

// Parser converts one broker export into canonical transactions.
type Parser interface {
	Parse(r io.Reader) ([]model.Transaction, error)
}

// Brokers lists the supported broker format names.
func Brokers() []string {
	return []string{BrokerKuvera, BrokerIBKR, BrokerCrypto}
}

// ForBroker returns the parser for a broker format name (case-insensitive).
func ForBroker(name string) (Parser, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case BrokerKuvera:
		return NewKuveraParser(), nil
	case BrokerIBKR:
		return NewIBKRParser(), nil
	case BrokerCrypto:
		return NewCryptoParser(), nil
	}
	return nil, fmt.Errorf("%w: %s", apperrors.ErrUnsupportedBroker, name)
}

// table is a header-indexed view over CSV records.
type table struct {
	columns map[string]int
	rows    [][]string
}

// readTable reads every record and indexes the header row.
// Header names are matched case-insensitively after trimming whitespace and a UTF-8 BOM.
func readTable(r io.Reader, source string, required []string) (*table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s parser: %w: empty file", source, apperrors.ErrInvalidCSVHeaders)
	}
	if err != nil {
		return nil, fmt.Errorf("%s parser: failed to read CSV header: %w", source, err)
	}

	t := &table{columns: make(map[string]int, len(header))}
	for i, name := range header {
		key := headerKey(name)
		if _, exists := t.columns[key]; !exists {
			t.columns[key] = i
		}
	}

	var missing []string
	for _, col := range required {
		if !t.has(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s parser: %w: missing %s", source, apperrors.ErrInvalidCSVHeaders, strings.Join(missing, ", "))
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s parser: failed to read CSV records: %w", source, err)
	}
	for _, record := range records {
		if !slices.ContainsFunc(record, func(v string) bool { return strings.TrimSpace(v) != "" }) {
			continue
		}
		t.rows = append(t.rows, record)
	}
	return t, nil
}

func headerKey(name string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
}

func (t *table) has(col string) bool {
	_, ok := t.columns[headerKey(col)]
	return ok
}

// get returns the trimmed value of col in row, or "" when the column or cell is absent.
func (t *table) get(row []string, col string) string {
	i, ok := t.columns[headerKey(col)]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseDecimal parses broker-formatted numbers. Blank or malformed values become zero.
func parseDecimal(s string) decimal.Decimal {
	cleaned := strings.Trim(strings.TrimSpace(s), "\"")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	if cleaned == "" || cleaned == "-" || cleaned == "--" {
		return decimal.Zero
	}
	// Accounting negatives: (123.45)
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		cleaned = "-" + strings.Trim(cleaned, "()")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}

var dateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
	"20060102",
	"2006-01-02, 15:04:05",
	"2006-01-02;150405",
	"20060102;150405",
	"02 Jan 2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// ParseDate parses the date formats seen in broker exports.
// An unparseable value yields the zero time, which callers treat as "no date".
func ParseDate(s string) time.Time {
	s = strings.Trim(strings.TrimSpace(s), "\"")
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
