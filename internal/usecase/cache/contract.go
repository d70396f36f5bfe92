package cache

import (
	"context"
	"time"

	"github.com/kailas-cloud/newsdex/internal/domain"
)

// Repository defines the storage contract for cached queries.
type Repository interface {
	Save(ctx context.Context, entry *domain.CacheEntry, vector []float32) error
	Nearest(ctx context.Context, vector []float32, k int) ([]domain.CacheEntry, error)
	DeleteExpired(ctx context.Context, now time.Time, ttl time.Duration) (int, error)
	DeleteAll(ctx context.Context) (int, error)
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
