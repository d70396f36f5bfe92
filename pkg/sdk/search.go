package newsdex

import (
	"context"
	"fmt"
	"time"
)

// Search runs a free-text search: entities are extracted from the query
// and matched against the index. Results come back most relevant first,
// up to limit.
func (c *Client) Search(
	ctx context.Context, query string, limit int,
) (results []ScoredResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	results, err = c.searchSvc.Search(ctx, query, nil, limit)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return results, nil
}

// SearchEntities runs a multi-category entity query with optional
// per-category relevance thresholds.
func (c *Client) SearchEntities(
	ctx context.Context,
	categories map[string][]string,
	thresholds map[string]float64,
	limit int,
) (results []ScoredResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search_entities", start, err) }()

	results, err = c.searchSvc.SearchEntities(ctx, categories, thresholds, limit)
	if err != nil {
		return nil, fmt.Errorf("search entities: %w", err)
	}
	return results, nil
}
