package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/newsdex/internal/domain"
	"github.com/kailas-cloud/newsdex/internal/metrics"
)

// maxInlineResults caps how many results are stored inside a cache entry.
// Larger result sets are cached without the result payload.
const maxInlineResults = 10

// Service is the semantic query cache: stores query results keyed by the
// query's embedding and answers lookups by nearest-neighbor similarity.
type Service struct {
	repo    Repository
	embed   Embedder
	ttl     time.Duration
	nowFunc func() time.Time
	logger  *zap.Logger
}

// New creates a cache service with the given entry TTL.
func New(repo Repository, embed Embedder, ttl time.Duration, logger *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		embed:   embed,
		ttl:     ttl,
		nowFunc: time.Now,
		logger:  logger,
	}
}

// WithClock overrides the time source. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.nowFunc = now
	return s
}

// Store caches a query with its results. Always appends: a fresh id is
// generated per call. Results are inlined only when small enough.
func (s *Service) Store(
	ctx context.Context,
	query string,
	results []domain.CachedResult,
	entities map[string][]string,
) (string, error) {
	emb, err := s.embed.Embed(ctx, query)
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}

	entry := domain.CacheEntry{
		ID:        uuid.NewString(),
		Query:     query,
		Entities:  entities,
		CreatedAt: s.nowFunc(),
	}
	if len(results) <= maxInlineResults {
		entry.Results = results
	}

	if err := s.repo.Save(ctx, &entry, emb.Embedding); err != nil {
		return "", fmt.Errorf("save cache entry: %w", err)
	}

	s.logger.Debug("cached query",
		zap.String("id", entry.ID),
		zap.Int("results", len(entry.Results)),
	)
	return entry.ID, nil
}

// FindSimilar returns the nearest cached entry when its similarity meets
// the threshold and it has not expired. Expiry is checked after the
// nearest-neighbor pick: an expired best match yields nil, never the
// second-best entry.
func (s *Service) FindSimilar(
	ctx context.Context, query string, threshold float64,
) (*domain.CacheEntry, error) {
	emb, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	entries, err := s.repo.Nearest(ctx, emb.Embedding, 1)
	if err != nil {
		return nil, fmt.Errorf("nearest lookup: %w", err)
	}
	if len(entries) == 0 {
		metrics.QueryCacheTotal.WithLabelValues("miss").Inc()
		return nil, nil
	}

	best := entries[0]
	if best.Similarity < threshold {
		metrics.QueryCacheTotal.WithLabelValues("miss").Inc()
		return nil, nil
	}
	if best.Expired(s.nowFunc(), s.ttl) {
		metrics.QueryCacheTotal.WithLabelValues("expired").Inc()
		s.logger.Debug("nearest cache entry expired",
			zap.String("id", best.ID),
			zap.Time("created_at", best.CreatedAt),
		)
		return nil, nil
	}

	metrics.QueryCacheTotal.WithLabelValues("hit").Inc()
	return &best, nil
}

// ClearExpired sweeps entries older than the TTL. Returns the number removed.
func (s *Service) ClearExpired(ctx context.Context) (int, error) {
	removed, err := s.repo.DeleteExpired(ctx, s.nowFunc(), s.ttl)
	if err != nil {
		return 0, fmt.Errorf("delete expired: %w", err)
	}
	if removed > 0 {
		s.logger.Info("swept expired cache entries", zap.Int("removed", removed))
	}
	return removed, nil
}

// ClearAll wipes the cache. Idempotent.
func (s *Service) ClearAll(ctx context.Context) (int, error) {
	removed, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete all: %w", err)
	}
	s.logger.Info("cleared query cache", zap.Int("removed", removed))
	return removed, nil
}
