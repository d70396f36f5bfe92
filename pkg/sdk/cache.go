package newsdex

import (
	"context"
	"fmt"
	"time"
)

// CacheQuery stores a query with its results in the semantic cache.
// Requires an embedder (WithEmbedder). Returns the new entry id.
func (c *Client) CacheQuery(
	ctx context.Context,
	query string,
	results []CachedResult,
	entities map[string][]string,
) (id string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("cache_query", start, err) }()

	id, err = c.cacheSvc.Store(ctx, query, results, entities)
	if err != nil {
		return "", fmt.Errorf("cache query: %w", err)
	}
	return id, nil
}

// FindCachedQuery returns the nearest cached entry when its similarity
// meets the threshold and it has not expired, nil otherwise.
func (c *Client) FindCachedQuery(
	ctx context.Context, query string, threshold float64,
) (entry *CacheEntry, err error) {
	start := time.Now()
	defer func() { c.obs.observe("find_cached_query", start, err) }()

	entry, err = c.cacheSvc.FindSimilar(ctx, query, threshold)
	if err != nil {
		return nil, fmt.Errorf("find cached query: %w", err)
	}
	return entry, nil
}

// ClearExpiredCache sweeps cache entries older than the TTL.
// Returns the number removed.
func (c *Client) ClearExpiredCache(ctx context.Context) (removed int, err error) {
	start := time.Now()
	defer func() { c.obs.observe("clear_expired_cache", start, err) }()

	removed, err = c.cacheSvc.ClearExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear expired cache: %w", err)
	}
	return removed, nil
}

// ClearCache wipes the query cache. Idempotent.
func (c *Client) ClearCache(ctx context.Context) (removed int, err error) {
	start := time.Now()
	defer func() { c.obs.observe("clear_cache", start, err) }()

	removed, err = c.cacheSvc.ClearAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	return removed, nil
}
