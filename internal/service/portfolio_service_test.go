package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Wealth-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Wealth-Tracker-Backend/internal/model"
	"github.com/ndewijer/Wealth-Tracker-Backend/internal/testutil"
)

func newTestPortfolioService(t *testing.T, market, funds *testutil.MockPriceFeed) *PortfolioService {
	t.Helper()
	prices := newTestPriceService(t, market, funds, nil)
	svc := NewPortfolioService(prices, DefaultAggregateOptions(), "INR", zerolog.Nop())
	svc.now = func() time.Time { return testNow }
	return svc
}

func uploads(files map[string]string) []Upload {
	var out []Upload
	for broker, body := range files {
		out = append(out, Upload{Broker: broker, Filename: broker + ".csv", Body: strings.NewReader(body)})
	}
	return out
}

func TestPortfolioService_ParseUploads(t *testing.T) {
	svc := newTestPortfolioService(t, testutil.NewMockPriceFeed(), testutil.NewMockPriceFeed())

	t.Run("requires at least one upload", func(t *testing.T) {
		_, err := svc.ParseUploads(nil)
		if !errors.Is(err, apperrors.ErrMissingFile) {
			t.Errorf("Expected ErrMissingFile, got %v", err)
		}
	})

	t.Run("rejects unknown broker", func(t *testing.T) {
		_, err := svc.ParseUploads(uploads(map[string]string{"degiro": "a,b\n"}))
		if !errors.Is(err, apperrors.ErrUnsupportedBroker) {
			t.Errorf("Expected ErrUnsupportedBroker, got %v", err)
		}
	})

	t.Run("wraps parser errors", func(t *testing.T) {
		_, err := svc.ParseUploads(uploads(map[string]string{"kuvera": "Date,Units\n"}))
		if !errors.Is(err, apperrors.ErrFailedToParseUpload) || !errors.Is(err, apperrors.ErrInvalidCSVHeaders) {
			t.Errorf("Expected wrapped header error, got %v", err)
		}
	})

	t.Run("concatenates all uploads", func(t *testing.T) {
		txs, err := svc.ParseUploads(uploads(map[string]string{
			"kuvera": testutil.KuveraCSV,
			"ibkr":   testutil.IBKRCSV,
		}))
		if err != nil {
			t.Fatalf("ParseUploads() returned unexpected error: %v", err)
		}
		if len(txs) != 4 {
			t.Errorf("Expected 4 transactions, got %d", len(txs))
		}
	})
}

// TestPortfolioService_Summarize tests the full parse → aggregate → price → value pipeline.
//
// WHY: Each stage is tested on its own; this guards the wiring between them,
// including currency conversion and the reporting of price failures.
func TestPortfolioService_Summarize(t *testing.T) {
	ctx := context.Background()

	market := testutil.NewMockPriceFeed().
		WithPrice("AAPL", 120).
		WithPrice("USDINR=X", 83)
	funds := testutil.NewMockPriceFeed().
		WithCatalog(testutil.FundCatalog()...).
		WithPrice("119018", 120)
	svc := newTestPortfolioService(t, market, funds)

	txs, err := svc.ParseUploads(uploads(map[string]string{
		"kuvera": testutil.KuveraCSV,
		"ibkr":   testutil.IBKRCSV,
	}))
	if err != nil {
		t.Fatalf("ParseUploads() returned unexpected error: %v", err)
	}

	t.Run("values in the base currency", func(t *testing.T) {
		report, err := svc.Summarize(ctx, txs, "")
		if err != nil {
			t.Fatalf("Summarize() returned unexpected error: %v", err)
		}

		// The Axis fund was fully redeemed.
		if len(report.Positions) != 2 {
			t.Fatalf("Expected 2 open positions, got %d", len(report.Positions))
		}
		if len(report.Failures) != 0 {
			t.Errorf("Expected no failures, got %+v", report.Failures)
		}

		s := report.Summary
		if s.Currency != "INR" || !s.AsOf.Equal(testNow) {
			t.Errorf("Unexpected currency/asOf %s %v", s.Currency, s.AsOf)
		}
		if !s.TotalCurrentValue.Equal(dec("100800")) {
			t.Errorf("Expected total value 100800, got %s", s.TotalCurrentValue)
		}
		if !s.TotalInvested.Equal(dec("84083")) {
			t.Errorf("Expected total invested 84083, got %s", s.TotalInvested)
		}
		if !s.TotalProfitLoss.Equal(dec("16717")) {
			t.Errorf("Expected total profit 16717, got %s", s.TotalProfitLoss)
		}
		if !s.XIRRDefined {
			t.Error("Expected a defined portfolio XIRR")
		}

		fund := report.Positions[0]
		if fund.Policy != "fund" || fund.InstrumentKey != "HDFC Top 100 Fund - Direct Plan" {
			t.Errorf("Expected fund policy on the HDFC position, got %s %s", fund.Policy, fund.InstrumentKey)
		}
	})

	t.Run("reports failures without failing", func(t *testing.T) {
		market.WithError("AAPL", errors.New("rate limited"))
		svc := newTestPortfolioService(t, market, funds)

		report, err := svc.Summarize(ctx, txs, "INR")
		if err != nil {
			t.Fatalf("Summarize() returned unexpected error: %v", err)
		}

		if len(report.Failures) != 1 || report.Failures[0].Key != "AAPL" {
			t.Fatalf("Expected AAPL failure, got %+v", report.Failures)
		}
		for _, p := range report.Positions {
			if p.InstrumentKey == "AAPL" && !p.HasWarning(model.WarningMissingPrice) {
				t.Errorf("Expected missing_price warning on AAPL, got %v", p.Warnings)
			}
		}
	})

	t.Run("cancelled context is an error", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		if _, err := svc.Summarize(cancelled, txs, ""); !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	})
}

func TestRoundReport(t *testing.T) {
	report := PortfolioReport{Portfolio: model.Portfolio{
		Summary: model.PortfolioSummary{TotalCurrentValue: dec("1234.5678"), XIRRReturn: 12.3456},
		ByClass: map[model.InstrumentClass]model.PortfolioSummary{
			model.ClassStock: {TotalProfitLoss: dec("0.005")},
		},
		Positions: []model.ValuedPosition{{
			Position:      model.Position{TotalUnits: dec("0.123456"), TotalAmount: dec("99.999")},
			CurrentPrice:     dec("0.0000183412345"),
			AverageUnitPrice: dec("812.004"),
			CurrentValue:     dec("10.004"),
			ProfitLossPct:    33.33333,
		}},
	}}

	got := RoundReport(report)

	if !got.Summary.TotalCurrentValue.Equal(dec("1234.57")) || got.Summary.XIRRReturn != 12.35 {
		t.Errorf("Unexpected rounded summary %+v", got.Summary)
	}
	if !got.ByClass[model.ClassStock].TotalProfitLoss.Equal(dec("0.01")) {
		t.Errorf("Expected class rollup rounded, got %s", got.ByClass[model.ClassStock].TotalProfitLoss)
	}
	p := got.Positions[0]
	if !p.TotalUnits.Equal(dec("0.123456")) {
		t.Errorf("Expected units untouched, got %s", p.TotalUnits)
	}
	if !p.TotalAmount.Equal(dec("100")) || !p.CurrentValue.Equal(dec("10")) || p.ProfitLossPct != 33.33 {
		t.Errorf("Unexpected rounded position %+v", p)
	}
	// Unit prices keep enough places that sub-cent prices stay non-zero.
	if !p.CurrentPrice.Equal(dec("0.00001834")) || !p.AverageUnitPrice.Equal(dec("812.004")) {
		t.Errorf("Expected prices rounded to 8 places, got %s / %s", p.CurrentPrice, p.AverageUnitPrice)
	}
	if !report.Summary.TotalCurrentValue.Equal(dec("1234.5678")) {
		t.Error("RoundReport modified its input")
	}
}

func TestRoundPrices(t *testing.T) {
	got := RoundPrices(map[string]decimal.Decimal{
		"SHIB": dec("0.000018341234"),
		"MSFT": dec("410.456"),
		"FUND": dec("12.3456789012"),
	})

	want := map[string]string{"SHIB": "0.00001834", "MSFT": "410.456", "FUND": "12.3456789"}
	for key, w := range want {
		if !got[key].Equal(dec(w)) {
			t.Errorf("RoundPrices()[%s] = %s, want %s", key, got[key], w)
		}
	}
}
