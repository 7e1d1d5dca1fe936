// Package cache holds the in-process price cache.
package cache

import (
	"context"
	"fmt"
	"slices"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ndewijer/Wealth-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Wealth-Tracker-Backend/internal/model"
)

// MemoryCache is a PriceCache backed by go-cache.
//
// Entries never expire inside go-cache: staleness is judged by the caller's
// TTL policy from FetchedAt, and a stale entry must stay readable so it can
// serve as a fallback when a refresh fails.
type MemoryCache struct {
	items *gocache.Cache
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		items: gocache.New(gocache.NoExpiration, 0),
	}
}

// Get returns the entry for key, or apperrors.ErrCacheEntryNotFound.
func (c *MemoryCache) Get(_ context.Context, key string) (model.PriceCacheEntry, error) {
	v, ok := c.items.Get(key)
	if !ok {
		return model.PriceCacheEntry{}, fmt.Errorf("%w: %s", apperrors.ErrCacheEntryNotFound, key)
	}
	return v.(model.PriceCacheEntry), nil
}

// Set stores entry under entry.Key, replacing any previous value.
func (c *MemoryCache) Set(_ context.Context, entry model.PriceCacheEntry) error {
	if entry.Key == "" {
		return fmt.Errorf("%w: %w", apperrors.ErrFailedToWriteCache, apperrors.ErrMissingKey)
	}
	c.items.Set(entry.Key, entry, gocache.NoExpiration)
	return nil
}

// Keys returns every cached key in sorted order.
func (c *MemoryCache) Keys(_ context.Context) ([]string, error) {
	items := c.items.Items()
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

// Len returns the number of cached entries.
func (c *MemoryCache) Len() int {
	return c.items.ItemCount()
}
