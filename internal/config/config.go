package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	Logging   LoggingConfig
	Pricing   PricingConfig
	Valuation ValuationConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string
	Pretty bool
}

// Price cache backends.
const (
	CacheBackendSQLite = "sqlite"
	CacheBackendMemory = "memory"
)

// PricingConfig holds price resolution and cache settings
type PricingConfig struct {
	CacheTTL        time.Duration
	CacheBackend    string
	FetchTimeout    time.Duration
	Concurrency     int
	RatePerSecond   float64
	RefreshSchedule string // empty disables the background refresh
	MatchThreshold  float64
	YahooBaseURL    string
	MFAPIBaseURL    string
}

// ValuationConfig holds aggregation and valuation settings
type ValuationConfig struct {
	BaseCurrency       string
	LiquidationEpsilon decimal.Decimal
	UnknownOrderPolicy string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds the configuration from the current environment only.
func FromEnv() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/wealth_tracker.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{
				"http://localhost:3000",
				"http://localhost",
			}),
		},
		Logging: LoggingConfig{
			Level: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		},
		Pricing: PricingConfig{
			CacheBackend:    strings.ToLower(getEnv("PRICE_CACHE_BACKEND", CacheBackendSQLite)),
			RefreshSchedule: strings.TrimSpace(os.Getenv("PRICE_REFRESH_SCHEDULE")),
			YahooBaseURL:    getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			MFAPIBaseURL:    getEnv("MFAPI_BASE_URL", "https://api.mfapi.in"),
		},
		Valuation: ValuationConfig{
			BaseCurrency:       strings.ToUpper(getEnv("BASE_CURRENCY", "INR")),
			UnknownOrderPolicy: strings.ToLower(getEnv("UNKNOWN_ORDER_POLICY", "buy")),
		},
	}
	if _, set := os.LookupEnv("PRICE_REFRESH_SCHEDULE"); !set {
		config.Pricing.RefreshSchedule = "@hourly"
	}

	var err error
	if config.Logging.Pretty, err = getEnvBool("LOG_PRETTY", false); err != nil {
		return nil, err
	}
	if config.Pricing.CacheTTL, err = getEnvDuration("PRICE_CACHE_TTL", time.Hour); err != nil {
		return nil, err
	}
	if config.Pricing.FetchTimeout, err = getEnvDuration("PRICE_FETCH_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if config.Pricing.Concurrency, err = getEnvInt("PRICE_FETCH_CONCURRENCY", 4); err != nil {
		return nil, err
	}
	if config.Pricing.RatePerSecond, err = getEnvFloat("PRICE_FETCH_RATE_PER_SECOND", 5); err != nil {
		return nil, err
	}
	if config.Pricing.MatchThreshold, err = getEnvFloat("FUZZY_MATCH_THRESHOLD", 0.7); err != nil {
		return nil, err
	}
	if config.Valuation.LiquidationEpsilon, err = getEnvDecimal("LIQUIDATION_EPSILON", "0.001"); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

func (c *Config) validate() error {
	switch c.Pricing.CacheBackend {
	case CacheBackendSQLite, CacheBackendMemory:
	default:
		return fmt.Errorf("invalid PRICE_CACHE_BACKEND %q: must be %s or %s", c.Pricing.CacheBackend, CacheBackendSQLite, CacheBackendMemory)
	}
	switch c.Valuation.UnknownOrderPolicy {
	case "buy", "skip":
	default:
		return fmt.Errorf("invalid UNKNOWN_ORDER_POLICY %q: must be buy or skip", c.Valuation.UnknownOrderPolicy)
	}
	if c.Pricing.MatchThreshold < 0 || c.Pricing.MatchThreshold > 1 {
		return fmt.Errorf("invalid FUZZY_MATCH_THRESHOLD %v: must be between 0 and 1", c.Pricing.MatchThreshold)
	}
	if c.Pricing.Concurrency < 1 {
		return fmt.Errorf("invalid PRICE_FETCH_CONCURRENCY %d: must be at least 1", c.Pricing.Concurrency)
	}
	if c.Valuation.LiquidationEpsilon.IsNegative() {
		return fmt.Errorf("invalid LIQUIDATION_EPSILON %s: must not be negative", c.Valuation.LiquidationEpsilon)
	}
	if len(c.Valuation.BaseCurrency) != 3 {
		return fmt.Errorf("invalid BASE_CURRENCY %q: must be a 3-letter code", c.Valuation.BaseCurrency)
	}
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvDecimal(key, defaultValue string) (decimal.Decimal, error) {
	value := getEnv(key, defaultValue)
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
