package service

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Wealth-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Wealth-Tracker-Backend/internal/model"
	"github.com/ndewijer/Wealth-Tracker-Backend/internal/parser"
)

// PriceResolver is the price-resolution collaborator used by PortfolioService.
// *PriceService implements it.
type PriceResolver interface {
	Resolve(ctx context.Context, instruments []model.Instrument) model.Resolution
	ResolveRates(ctx context.Context, currencies []string, base string) (map[string]decimal.Decimal, []model.FetchFailure)
}

// Upload is one broker export to be parsed.
type Upload struct {
	Broker   string
	Filename string
	Body     io.Reader
}

// PortfolioReport is a valued portfolio plus every price or rate that could not be resolved.
type PortfolioReport struct {
	model.Portfolio
	Failures []model.FetchFailure `json:"failures"`
}

// PortfolioService turns broker exports into a valued portfolio.
// Each call recomputes everything from its inputs; nothing is kept between calls
// apart from what the price cache stores.
type PortfolioService struct {
	prices       PriceResolver
	aggregate    AggregateOptions
	baseCurrency string
	logger       zerolog.Logger
	now          func() time.Time
}

// NewPortfolioService creates a new PortfolioService.
// baseCurrency is used when a request does not name a currency.
func NewPortfolioService(prices PriceResolver, opts AggregateOptions, baseCurrency string, logger zerolog.Logger) *PortfolioService {
	return &PortfolioService{
		prices:       prices,
		aggregate:    opts,
		baseCurrency: strings.ToUpper(baseCurrency),
		logger:       logger.With().Str("component", "portfolio").Logger(),
		now:          time.Now,
	}
}

// BaseCurrency returns the default reporting currency.
func (s *PortfolioService) BaseCurrency() string {
	return s.baseCurrency
}

// ParseUploads parses every upload with the parser for its broker and
// concatenates the transactions in upload order.
//
// Returns apperrors.ErrMissingFile when uploads is empty. Parser errors are
// wrapped with apperrors.ErrFailedToParseUpload and keep their cause, so
// callers can still match apperrors.ErrInvalidCSVHeaders.
func (s *PortfolioService) ParseUploads(uploads []Upload) ([]model.Transaction, error) {
	if len(uploads) == 0 {
		return nil, apperrors.ErrMissingFile
	}

	var transactions []model.Transaction
	for _, u := range uploads {
		p, err := parser.ForBroker(u.Broker)
		if err != nil {
			return nil, err
		}
		txs, err := p.Parse(u.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", apperrors.ErrFailedToParseUpload, u.Filename, err)
		}
		s.logger.Debug().
			Str("broker", u.Broker).
			Str("file", u.Filename).
			Int("transactions", len(txs)).
			Msg("parsed upload")
		transactions = append(transactions, txs...)
	}
	return transactions, nil
}

// Positions folds transactions into open positions.
func (s *PortfolioService) Positions(transactions []model.Transaction) []model.Position {
	agg := AggregatePositions(transactions, s.aggregate)
	if agg.UnknownOrders > 0 {
		s.logger.Warn().
			Int("count", agg.UnknownOrders).
			Str("policy", string(s.aggregate.UnknownOrder)).
			Msg("transactions with unrecognized order type")
	}
	if len(agg.CurrencyMismatches) > 0 {
		s.logger.Warn().
			Strs("instruments", agg.CurrencyMismatches).
			Msg("transactions in more than one currency for the same instrument")
	}
	if len(agg.Liquidated) > 0 {
		s.logger.Debug().Strs("instruments", agg.Liquidated).Msg("dropped liquidated positions")
	}
	return agg.Positions
}

// Summarize aggregates, prices and values transactions in the given currency
// (the configured base currency when empty).
//
// Price and rate failures never fail the summary; they are listed in
// PortfolioReport.Failures and the affected positions carry warnings. The only
// error is a cancelled context.
func (s *PortfolioService) Summarize(ctx context.Context, transactions []model.Transaction, currency string) (PortfolioReport, error) {
	base := strings.ToUpper(strings.TrimSpace(currency))
	if base == "" {
		base = s.baseCurrency
	}

	positions := s.Positions(transactions)

	instruments := make([]model.Instrument, 0, len(positions))
	var currencies []string
	for _, p := range positions {
		instruments = append(instruments, model.Instrument{Key: p.InstrumentKey, Class: p.Class, Currency: p.Currency})
		if c := strings.ToUpper(p.Currency); c != "" && c != base && !slices.Contains(currencies, c) {
			currencies = append(currencies, c)
		}
	}

	resolution := s.prices.Resolve(ctx, instruments)
	rates, rateFailures := s.prices.ResolveRates(ctx, currencies, base)
	if err := ctx.Err(); err != nil {
		return PortfolioReport{}, err
	}

	portfolio := ValuePortfolio(ValuationInput{
		Positions:    positions,
		Prices:       resolution.Prices,
		Rates:        rates,
		BaseCurrency: base,
		AsOf:         s.now().UTC(),
	})

	failures := append(append([]model.FetchFailure{}, resolution.Failures...), rateFailures...)

	s.logger.Info().
		Int("positions", portfolio.Summary.PositionCount).
		Int("failures", len(failures)).
		Str("currency", base).
		Msg("portfolio summarized")

	return PortfolioReport{Portfolio: portfolio, Failures: failures}, nil
}
