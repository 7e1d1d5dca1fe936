package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceCacheEntry is one cached quote.
type PriceCacheEntry struct {
	Key       string          `json:"key"`
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency,omitempty"`
	FetchedAt time.Time       `json:"fetchedAt"`
}

// Instrument identifies something that needs a price.
// Key is the instrument key used by positions (fund name or ticker).
type Instrument struct {
	Key      string          `json:"key"`
	Class    InstrumentClass `json:"class"`
	Currency string          `json:"currency,omitempty"`
}

// FetchFailure describes why one instrument could not be priced.
// Stale is true when a stale cached price was used instead of 0.
type FetchFailure struct {
	Key    string `json:"key"`
	Symbol string `json:"symbol,omitempty"`
	Reason string `json:"reason"`
	Stale  bool   `json:"stale"`
}

// FundMatch is the outcome of resolving a fund display name against the feed catalog.
type FundMatch struct {
	Query      string  `json:"query"`
	Matched    bool    `json:"matched"`
	Name       string  `json:"name,omitempty"`
	Code       string  `json:"code,omitempty"`
	Similarity float64 `json:"similarity"`
	Exact      bool    `json:"exact"`
}

// Resolution is the result of resolving a batch of instruments.
// Prices always holds an entry for every requested key; unresolved keys map to zero.
type Resolution struct {
	Prices   map[string]decimal.Decimal `json:"prices"`
	Failures []FetchFailure             `json:"failures"`
}
