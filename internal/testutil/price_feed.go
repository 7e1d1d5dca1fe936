package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ndewijer/Wealth-Tracker-Backend/internal/matching"
)

// MockPriceFeed is an in-memory price feed for tests.
// It satisfies both service.PriceFeed and service.FundFeed.
//
// Example:
//
//	feed := testutil.NewMockPriceFeed().
//	    WithPrice("AAPL", 187.5).
//	    WithError("MSFT", errors.New("boom"))
type MockPriceFeed struct {
	mu         sync.Mutex
	prices     map[string]float64
	errs       map[string]error
	catalog    []matching.Entry
	catalogErr error
	delay      time.Duration
	calls      map[string]int
	catalogHit int
}

// NewMockPriceFeed creates an empty MockPriceFeed.
func NewMockPriceFeed() *MockPriceFeed {
	return &MockPriceFeed{
		prices: make(map[string]float64),
		errs:   make(map[string]error),
		calls:  make(map[string]int),
	}
}

// WithPrice sets the quote returned for symbol.
func (m *MockPriceFeed) WithPrice(symbol string, price float64) *MockPriceFeed {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[symbol] = price
	delete(m.errs, symbol)
	return m
}

// WithError makes Quote fail for symbol.
func (m *MockPriceFeed) WithError(symbol string, err error) *MockPriceFeed {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[symbol] = err
	return m
}

// WithCatalog sets the fund catalog.
func (m *MockPriceFeed) WithCatalog(entries ...matching.Entry) *MockPriceFeed {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalog = entries
	return m
}

// WithCatalogError makes Catalog fail.
func (m *MockPriceFeed) WithCatalogError(err error) *MockPriceFeed {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalogErr = err
	return m
}

// WithDelay makes every Quote wait d (or until the context ends) before answering.
func (m *MockPriceFeed) WithDelay(d time.Duration) *MockPriceFeed {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

// Quote implements service.PriceFeed.
func (m *MockPriceFeed) Quote(ctx context.Context, symbol string) (float64, error) {
	m.mu.Lock()
	m.calls[symbol]++
	delay := m.delay
	price, ok := m.prices[symbol]
	err := m.errs[symbol]
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("no mock price for %s", symbol)
	}
	return price, nil
}

// Catalog implements service.FundFeed.
func (m *MockPriceFeed) Catalog(_ context.Context) ([]matching.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalogHit++
	if m.catalogErr != nil {
		return nil, m.catalogErr
	}
	return m.catalog, nil
}

// Calls returns how many times Quote was called for symbol.
func (m *MockPriceFeed) Calls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[symbol]
}

// CatalogCalls returns how many times Catalog was called.
func (m *MockPriceFeed) CatalogCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.catalogHit
}
