package domain

import "time"

// CachedResult is the projection of a ScoredResult inlined into a cache
// entry. Entities are kept so a hit can answer without touching the store.
type CachedResult struct {
	URL       string                      `json:"url"`
	Relevance float64                     `json:"relevance_score"`
	Entities  map[string][]WeightedEntity `json:"entities,omitempty"`
}

// CacheEntry is a cached search query with its results, retrievable by
// semantic proximity of the query text.
type CacheEntry struct {
	ID         string              `json:"id"`
	Query      string              `json:"query"`
	Entities   map[string][]string `json:"query_entities,omitempty"`
	Results    []CachedResult      `json:"results,omitempty"`
	Similarity float64             `json:"similarity"`
	CreatedAt  time.Time           `json:"timestamp"`
}

// Expired reports whether the entry is older than ttl at the given instant.
func (e CacheEntry) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.CreatedAt) > ttl
}
