package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Wealth-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Wealth-Tracker-Backend/internal/model"
)

// PriceCacheRepository is a PriceCache persisted in the price_cache table.
// Prices survive restarts, so a stale price is available as a fallback even
// right after startup.
type PriceCacheRepository struct {
	db *sql.DB
}

// NewPriceCacheRepository creates a new PriceCacheRepository with the provided database connection.
func NewPriceCacheRepository(db *sql.DB) *PriceCacheRepository {
	return &PriceCacheRepository{db: db}
}

// Get retrieves the cached entry for key.
// Returns apperrors.ErrCacheEntryNotFound when no row exists.
func (r *PriceCacheRepository) Get(ctx context.Context, key string) (model.PriceCacheEntry, error) {
	query := `
		SELECT cache_key, symbol, price, COALESCE(currency, ''), fetched_at
		FROM price_cache
		WHERE cache_key = ?
	`

	var (
		entry     model.PriceCacheEntry
		price     string
		fetchedAt string
	)
	err := r.db.QueryRowContext(ctx, query, key).Scan(
		&entry.Key,
		&entry.Symbol,
		&price,
		&entry.Currency,
		&fetchedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PriceCacheEntry{}, fmt.Errorf("%w: %s", apperrors.ErrCacheEntryNotFound, key)
	}
	if err != nil {
		return model.PriceCacheEntry{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToReadCache, err)
	}

	entry.Price, err = decimal.NewFromString(price)
	if err != nil {
		return model.PriceCacheEntry{}, fmt.Errorf("%w: invalid price for %s: %w", apperrors.ErrFailedToReadCache, key, err)
	}
	entry.FetchedAt, err = ParseTime(fetchedAt)
	if err != nil {
		return model.PriceCacheEntry{}, fmt.Errorf("%w: invalid fetched_at for %s: %w", apperrors.ErrFailedToReadCache, key, err)
	}

	return entry, nil
}

// Set inserts entry or overwrites the existing row for entry.Key.
// The row id is assigned once on insert and kept on update.
func (r *PriceCacheRepository) Set(ctx context.Context, entry model.PriceCacheEntry) error {
	if entry.Key == "" {
		return fmt.Errorf("%w: %w", apperrors.ErrFailedToWriteCache, apperrors.ErrMissingKey)
	}

	query := `
		INSERT INTO price_cache (id, cache_key, symbol, price, currency, fetched_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(cache_key) DO UPDATE SET
			symbol = excluded.symbol,
			price = excluded.price,
			currency = excluded.currency,
			fetched_at = excluded.fetched_at,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := r.db.ExecContext(ctx, query,
		uuid.New().String(),
		entry.Key,
		entry.Symbol,
		entry.Price.String(),
		entry.Currency,
		FormatTime(entry.FetchedAt),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrFailedToWriteCache, err)
	}
	return nil
}

// Keys returns every cached key in ascending order.
func (r *PriceCacheRepository) Keys(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT cache_key FROM price_cache ORDER BY cache_key`)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToReadCache, err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToReadCache, err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToReadCache, err)
	}
	return keys, nil
}
