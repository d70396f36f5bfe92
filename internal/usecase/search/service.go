package search

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/kailas-cloud/newsdex/internal/domain"
	"github.com/kailas-cloud/newsdex/internal/metrics"
)

// Service ranks stored documents against multi-category entity queries.
type Service struct {
	repo      Repository
	extractor Extractor
	logger    *zap.Logger
}

// New creates a search service.
func New(repo Repository, extractor Extractor, logger *zap.Logger) *Service {
	return &Service{repo: repo, extractor: extractor, logger: logger}
}

// SearchEntities retrieves candidates matching the categorized terms,
// scores each and returns up to limit results, most relevant first.
// Store failures are fatal and propagate to the caller.
func (s *Service) SearchEntities(
	ctx context.Context,
	categories map[string][]string,
	thresholds map[string]float64,
	limit int,
) ([]domain.ScoredResult, error) {
	query := domain.Query{Categories: categories, Thresholds: thresholds}
	if query.IsEmpty() {
		return nil, nil
	}

	metrics.SearchesTotal.WithLabelValues("entities").Inc()

	docs, err := s.repo.FilteredSearch(ctx, categories, thresholds)
	if err != nil {
		return nil, fmt.Errorf("filtered search: %w", err)
	}

	results := make([]domain.ScoredResult, 0, len(docs))
	for _, doc := range docs {
		results = append(results, domain.ScoredResult{
			Document:  doc,
			Relevance: relevance(doc, categories),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	s.logger.Debug("entity search completed",
		zap.Int("candidates", len(docs)),
		zap.Int("returned", len(results)),
	)
	return results, nil
}

// Search maps a free-text query to categorized entities via the extractor
// and delegates to SearchEntities. When extraction yields no terms at all
// the store is not consulted and the result is empty. Categories without
// an explicit threshold get the default.
func (s *Service) Search(
	ctx context.Context, query string, thresholds map[string]float64, limit int,
) ([]domain.ScoredResult, error) {
	metrics.SearchesTotal.WithLabelValues("text").Inc()

	categories := s.extractor.Extract(query)

	extracted := map[string][]string{}
	for category, terms := range categories {
		if len(terms) > 0 {
			extracted[category] = terms
		}
	}
	if len(extracted) == 0 {
		s.logger.Debug("query produced no entities", zap.String("query", query))
		return nil, nil
	}

	effective := make(map[string]float64, len(extracted))
	for category := range extracted {
		if t, ok := thresholds[category]; ok {
			effective[category] = t
		} else {
			effective[category] = domain.DefaultRelevanceThreshold
		}
	}

	return s.SearchEntities(ctx, extracted, effective, limit)
}
