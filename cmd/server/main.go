package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Wealth-Tracker-Backend/internal/api"
	"github.com/ndewijer/Wealth-Tracker-Backend/internal/cache"
	"github.com/ndewijer/Wealth-Tracker-Backend/internal/config"
	"github.com/ndewijer/Wealth-Tracker-Backend/internal/database"
	"github.com/ndewijer/Wealth-Tracker-Backend/internal/logger"
	"github.com/ndewijer/Wealth-Tracker-Backend/internal/mfapi"
	"github.com/ndewijer/Wealth-Tracker-Backend/internal/repository"
	"github.com/ndewijer/Wealth-Tracker-Backend/internal/scheduler"
	"github.com/ndewijer/Wealth-Tracker-Backend/internal/service"
	"github.com/ndewijer/Wealth-Tracker-Backend/internal/yahoo"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Logger is not configured yet.
		bootLog := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.Logging.Level, Pretty: cfg.Logging.Pretty})

	// Price cache storage
	priceCache, db, err := openPriceCache(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Pricing.CacheBackend).Msg("failed to open price cache")
	}
	if db != nil {
		defer db.Close()
	}

	// Upstream feeds
	httpClient := &http.Client{Timeout: cfg.Pricing.FetchTimeout}
	market := yahoo.NewFinanceClient(httpClient, cfg.Pricing.YahooBaseURL)
	funds := mfapi.NewClient(httpClient, cfg.Pricing.MFAPIBaseURL)

	// Create services
	systemService := service.NewSystemService(db)
	priceService := service.NewPriceService(market, funds, priceCache, service.PriceServiceConfig{
		TTL:            cfg.Pricing.CacheTTL,
		FetchTimeout:   cfg.Pricing.FetchTimeout,
		Concurrency:    cfg.Pricing.Concurrency,
		RatePerSecond:  cfg.Pricing.RatePerSecond,
		MatchThreshold: cfg.Pricing.MatchThreshold,
	}, log)
	portfolioService := service.NewPortfolioService(priceService, service.AggregateOptions{
		Epsilon:      cfg.Valuation.LiquidationEpsilon,
		UnknownOrder: service.UnknownOrderPolicy(cfg.Valuation.UnknownOrderPolicy),
	}, cfg.Valuation.BaseCurrency, log)

	// Background refresh
	sched := scheduler.New(log)
	if cfg.Pricing.RefreshSchedule != "" {
		job := scheduler.NewPriceRefreshJob(priceService, 0, log)
		if err := sched.AddJob(cfg.Pricing.RefreshSchedule, job); err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.Pricing.RefreshSchedule).Msg("invalid price refresh schedule")
		}
		sched.Start()
		defer sched.Stop()
	}

	// Create router
	router := api.NewRouter(systemService, portfolioService, priceService, cfg, log)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server exited")
}

// openPriceCache returns the configured PriceCache. The sqlite backend also
// returns its migrated database, which the caller closes; memory returns a nil db.
func openPriceCache(cfg *config.Config, log zerolog.Logger) (service.PriceCache, *sql.DB, error) {
	if cfg.Pricing.CacheBackend == config.CacheBackendMemory {
		log.Info().Msg("using in-memory price cache")
		return cache.NewMemoryCache(), nil, nil
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, nil, err
	}

	version, err := database.SchemaVersion(db)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read schema version")
	}
	log.Info().Str("path", cfg.Database.Path).Int64("schema_version", version).Msg("connected to database")

	return repository.NewPriceCacheRepository(db), db, nil
}
