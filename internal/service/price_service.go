package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/ndewijer/Wealth-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Wealth-Tracker-Backend/internal/matching"
	"github.com/ndewijer/Wealth-Tracker-Backend/internal/model"
)

// PriceFeed returns the latest price for a feed symbol.
type PriceFeed interface {
	Quote(ctx context.Context, symbol string) (float64, error)
}

// FundFeed is a PriceFeed keyed by scheme code that also publishes its scheme catalog.
type FundFeed interface {
	PriceFeed
	Catalog(ctx context.Context) ([]matching.Entry, error)
}

// PriceCache stores the latest quote per cache key.
// Get returns apperrors.ErrCacheEntryNotFound when the key is absent.
// Expiry is not the cache's concern; callers apply a TTLPolicy.
type PriceCache interface {
	Get(ctx context.Context, key string) (model.PriceCacheEntry, error)
	Set(ctx context.Context, entry model.PriceCacheEntry) error
	Keys(ctx context.Context) ([]string, error)
}

// TTLPolicy decides when a cached price must be refreshed.
type TTLPolicy struct {
	TTL time.Duration
}

// IsExpired reports whether an entry fetched at fetchedAt is stale at now.
// A non-positive TTL expires every entry.
func (p TTLPolicy) IsExpired(fetchedAt, now time.Time) bool {
	if p.TTL <= 0 {
		return true
	}
	return !now.Before(fetchedAt.Add(p.TTL))
}

// Cache key namespaces.
const (
	fxNamespace = "fx"

	catalogTTL = 24 * time.Hour
)

// PriceServiceConfig holds the tunables of price resolution.
type PriceServiceConfig struct {
	TTL            time.Duration
	FetchTimeout   time.Duration
	Concurrency    int
	RatePerSecond  float64
	MatchThreshold float64
}

// PriceService resolves instrument keys to current prices through a TTL cache.
//
// Mutual funds are looked up by fuzzy-matching the fund name against the fund
// feed's catalog; stocks and crypto are quoted by ticker on the market feed,
// which also serves FX pairs. Each key is fetched independently: one failure
// never blocks another, and concurrent refreshes of the same key are
// collapsed into one upstream call.
type PriceService struct {
	market  PriceFeed
	funds   FundFeed
	cache   PriceCache
	ttl     TTLPolicy
	cfg     PriceServiceConfig
	limiter *rate.Limiter
	flights singleflight.Group
	logger  zerolog.Logger
	now     func() time.Time

	catalogMu        sync.Mutex
	catalog          *matching.Catalog
	catalogFetchedAt time.Time
}

// NewPriceService creates a PriceService. Zero config values fall back to
// a one hour TTL, a 10s fetch timeout, 4 concurrent fetches, 5 requests per
// second and the default match threshold.
func NewPriceService(market PriceFeed, funds FundFeed, cache PriceCache, cfg PriceServiceConfig, logger zerolog.Logger) *PriceService {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.MatchThreshold <= 0 {
		cfg.MatchThreshold = matching.DefaultThreshold
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}

	return &PriceService{
		market:  market,
		funds:   funds,
		cache:   cache,
		ttl:     TTLPolicy{TTL: cfg.TTL},
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, cfg.Concurrency),
		logger:  logger.With().Str("component", "prices").Logger(),
		now:     time.Now,
	}
}

// quoteRequest is one cache-backed upstream lookup.
type quoteRequest struct {
	key    string // the caller's identifier, echoed in failures
	symbol string // the feed symbol
	feed   PriceFeed
	cache  string // cache key
}

// Resolve returns a price for every instrument. Unresolvable instruments map
// to zero (or a stale cached price) and are reported in Failures; Resolve
// itself never fails.
//
// Duplicate keys are resolved once. Failures are sorted by key.
func (s *PriceService) Resolve(ctx context.Context, instruments []model.Instrument) model.Resolution {
	res := model.Resolution{Prices: make(map[string]decimal.Decimal, len(instruments))}

	var (
		mu   sync.Mutex
		seen = make(map[string]bool, len(instruments))
	)
	g := new(errgroup.Group)
	g.SetLimit(s.cfg.Concurrency)

	for _, inst := range instruments {
		if seen[inst.Key] {
			continue
		}
		seen[inst.Key] = true

		g.Go(func() error {
			price, failure := s.resolveInstrument(ctx, inst)
			mu.Lock()
			defer mu.Unlock()
			res.Prices[inst.Key] = price
			if failure != nil {
				res.Failures = append(res.Failures, *failure)
			}
			return nil
		})
	}
	_ = g.Wait()

	sortFailures(res.Failures)
	return res
}

// ResolveRates returns, for every currency, the number of base units per unit
// of that currency. The base currency itself always maps to 1.
func (s *PriceService) ResolveRates(ctx context.Context, currencies []string, base string) (map[string]decimal.Decimal, []model.FetchFailure) {
	base = strings.ToUpper(base)
	rates := map[string]decimal.Decimal{base: decimal.NewFromInt(1)}

	var (
		mu       sync.Mutex
		failures []model.FetchFailure
		seen     = map[string]bool{base: true}
	)
	g := new(errgroup.Group)
	g.SetLimit(s.cfg.Concurrency)

	for _, currency := range currencies {
		currency = strings.ToUpper(strings.TrimSpace(currency))
		if currency == "" || seen[currency] {
			continue
		}
		seen[currency] = true

		req := fxRequest(s.market, currency, base)
		g.Go(func() error {
			price, failure := s.quote(ctx, req)
			mu.Lock()
			defer mu.Unlock()
			if failure != nil {
				failures = append(failures, *failure)
			}
			if price.IsPositive() {
				rates[currency] = price
			}
			return nil
		})
	}
	_ = g.Wait()

	sortFailures(failures)
	return rates, failures
}

// MatchFund resolves a fund display name against the fund catalog.
// An error is returned only when the catalog cannot be loaded; a name with no
// match above the threshold yields a FundMatch with Matched=false.
func (s *PriceService) MatchFund(ctx context.Context, name string) (model.FundMatch, error) {
	catalog, err := s.loadCatalog(ctx)
	if err != nil {
		return model.FundMatch{Query: name}, err
	}

	m, ok := catalog.BestMatch(name, s.cfg.MatchThreshold)
	result := model.FundMatch{Query: name, Matched: ok, Similarity: m.Similarity}
	if ok {
		result.Name = m.Name
		result.Code = m.Code
		result.Exact = m.Exact
	}
	return result, nil
}

// RefreshStale refetches every cached entry whose TTL has expired and returns
// the number of entries refreshed. Failed refreshes keep the stale entry.
func (s *PriceService) RefreshStale(ctx context.Context) (int, []model.FetchFailure, error) {
	keys, err := s.cache.Keys(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToReadCache, err)
	}

	var (
		mu        sync.Mutex
		refreshed int
		failures  []model.FetchFailure
	)
	g := new(errgroup.Group)
	g.SetLimit(s.cfg.Concurrency)

	for _, key := range keys {
		entry, err := s.cache.Get(ctx, key)
		if err != nil || !s.ttl.IsExpired(entry.FetchedAt, s.now()) {
			continue
		}
		req, ok := s.requestForCacheKey(key, entry)
		if !ok {
			continue
		}

		g.Go(func() error {
			_, err := s.fetch(ctx, req)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, model.FetchFailure{Key: req.key, Symbol: req.symbol, Reason: err.Error(), Stale: true})
				return nil
			}
			refreshed++
			return nil
		})
	}
	_ = g.Wait()

	sortFailures(failures)
	return refreshed, failures, nil
}

func (s *PriceService) resolveInstrument(ctx context.Context, inst model.Instrument) (decimal.Decimal, *model.FetchFailure) {
	switch inst.Class {
	case model.ClassMutualFund:
		match, err := s.MatchFund(ctx, inst.Key)
		if err != nil {
			return decimal.Zero, s.failure(inst.Key, "", err, false)
		}
		if !match.Matched {
			err := fmt.Errorf("%w: best similarity %.2f", apperrors.ErrFundNotMatched, match.Similarity)
			return decimal.Zero, s.failure(inst.Key, "", err, false)
		}
		return s.quote(ctx, quoteRequest{
			key:    inst.Key,
			symbol: match.Code,
			feed:   s.funds,
			cache:  cacheKey(model.ClassMutualFund, match.Code),
		})
	case model.ClassCrypto:
		symbol := CryptoSymbol(inst.Key, inst.Currency)
		return s.quote(ctx, quoteRequest{key: inst.Key, symbol: symbol, feed: s.market, cache: cacheKey(model.ClassCrypto, symbol)})
	default:
		return s.quote(ctx, quoteRequest{key: inst.Key, symbol: inst.Key, feed: s.market, cache: cacheKey(model.ClassStock, inst.Key)})
	}
}

// quote serves a fresh cache entry, otherwise fetches. A failed fetch falls
// back to any stale cache entry.
func (s *PriceService) quote(ctx context.Context, req quoteRequest) (decimal.Decimal, *model.FetchFailure) {
	cached, cacheErr := s.cache.Get(ctx, req.cache)
	if cacheErr == nil && !s.ttl.IsExpired(cached.FetchedAt, s.now()) {
		return cached.Price, nil
	}
	if cacheErr != nil && !errors.Is(cacheErr, apperrors.ErrCacheEntryNotFound) {
		s.logger.Warn().Err(cacheErr).Str("key", req.cache).Msg("price cache read failed")
	}

	price, err := s.fetch(ctx, req)
	if err == nil {
		return price, nil
	}

	if cacheErr == nil {
		return cached.Price, s.failure(req.key, req.symbol, err, true)
	}
	return decimal.Zero, s.failure(req.key, req.symbol, err, false)
}

// fetch performs one rate-limited, deduplicated upstream call and caches the result.
func (s *PriceService) fetch(ctx context.Context, req quoteRequest) (decimal.Decimal, error) {
	if req.feed == nil {
		return decimal.Zero, fmt.Errorf("%w: no feed configured for %s", apperrors.ErrFailedToFetchPrice, req.symbol)
	}

	v, err, _ := s.flights.Do(req.cache, func() (any, error) {
		if err := s.limiter.Wait(ctx); err != nil {
			return decimal.Zero, fmt.Errorf("%w: %w", apperrors.ErrFailedToFetchPrice, err)
		}

		fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
		defer cancel()

		raw, err := req.feed.Quote(fetchCtx, req.symbol)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %w", apperrors.ErrFailedToFetchPrice, err)
		}
		if math.IsNaN(raw) || math.IsInf(raw, 0) || raw <= 0 {
			return decimal.Zero, fmt.Errorf("%w: %s", apperrors.ErrPriceNotFound, req.symbol)
		}

		price := decimal.NewFromFloat(raw)
		entry := model.PriceCacheEntry{
			Key:       req.cache,
			Symbol:    req.symbol,
			Price:     price,
			FetchedAt: s.now(),
		}
		if err := s.cache.Set(ctx, entry); err != nil {
			s.logger.Warn().Err(err).Str("key", req.cache).Msg("price cache write failed")
		}
		return price, nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return v.(decimal.Decimal), nil
}

func (s *PriceService) failure(key, symbol string, err error, stale bool) *model.FetchFailure {
	s.logger.Warn().
		Err(err).
		Str("key", key).
		Str("symbol", symbol).
		Bool("stale", stale).
		Msg("price resolution failed")
	return &model.FetchFailure{Key: key, Symbol: symbol, Reason: err.Error(), Stale: stale}
}

// loadCatalog returns the fund catalog, refetching it once a day.
// A failed refresh keeps serving the previous catalog.
func (s *PriceService) loadCatalog(ctx context.Context) (*matching.Catalog, error) {
	s.catalogMu.Lock()
	current, fetchedAt := s.catalog, s.catalogFetchedAt
	s.catalogMu.Unlock()

	if current != nil && s.now().Sub(fetchedAt) < catalogTTL {
		return current, nil
	}
	if s.funds == nil {
		return nil, fmt.Errorf("%w: no fund feed configured", apperrors.ErrFailedToLoadCatalog)
	}

	v, err, _ := s.flights.Do("catalog", func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
		defer cancel()

		entries, err := s.funds.Catalog(fetchCtx)
		if err != nil {
			return nil, err
		}
		catalog := matching.NewCatalog(entries)

		s.catalogMu.Lock()
		s.catalog, s.catalogFetchedAt = catalog, s.now()
		s.catalogMu.Unlock()

		s.logger.Info().Int("entries", catalog.Len()).Msg("fund catalog loaded")
		return catalog, nil
	})
	if err != nil {
		if current != nil {
			s.logger.Warn().Err(err).Msg("fund catalog refresh failed, using previous catalog")
			return current, nil
		}
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToLoadCatalog, err)
	}
	return v.(*matching.Catalog), nil
}

// requestForCacheKey rebuilds the upstream request for a cached entry.
func (s *PriceService) requestForCacheKey(key string, entry model.PriceCacheEntry) (quoteRequest, bool) {
	namespace, symbol, ok := strings.Cut(key, ":")
	if !ok || symbol == "" {
		return quoteRequest{}, false
	}
	if entry.Symbol != "" {
		symbol = entry.Symbol
	}

	req := quoteRequest{key: symbol, symbol: symbol, cache: key}
	switch namespace {
	case string(model.ClassMutualFund):
		req.feed = s.funds
	case string(model.ClassStock), string(model.ClassCrypto), fxNamespace:
		req.feed = s.market
	default:
		return quoteRequest{}, false
	}
	return req, req.feed != nil
}

func fxRequest(feed PriceFeed, currency, base string) quoteRequest {
	symbol := FXSymbol(currency, base)
	return quoteRequest{key: currency, symbol: symbol, feed: feed, cache: fxNamespace + ":" + symbol}
}

func cacheKey(class model.InstrumentClass, symbol string) string {
	return string(class) + ":" + symbol
}

// CryptoSymbol returns the market-feed symbol for a coin, e.g. BTC → BTC-USD.
// Keys that already name a pair are returned unchanged.
func CryptoSymbol(coin, currency string) string {
	coin = strings.ToUpper(strings.TrimSpace(coin))
	if strings.Contains(coin, "-") {
		return coin
	}
	if currency == "" {
		currency = "USD"
	}
	return coin + "-" + strings.ToUpper(currency)
}

// FXSymbol returns the market-feed symbol quoting base units per unit of currency, e.g. USDINR=X.
func FXSymbol(currency, base string) string {
	return strings.ToUpper(currency) + strings.ToUpper(base) + "=X"
}

func sortFailures(failures []model.FetchFailure) {
	slices.SortFunc(failures, func(a, b model.FetchFailure) int {
		return strings.Compare(a.Key, b.Key)
	})
}
