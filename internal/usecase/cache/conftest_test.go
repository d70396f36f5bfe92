package cache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/newsdex/internal/domain"
)

// mockRepo implements Repository for tests.
type mockRepo struct {
	saveFn          func(ctx context.Context, entry *domain.CacheEntry, vector []float32) error
	nearestFn       func(ctx context.Context, vector []float32, k int) ([]domain.CacheEntry, error)
	deleteExpiredFn func(ctx context.Context, now time.Time, ttl time.Duration) (int, error)
	deleteAllFn     func(ctx context.Context) (int, error)
}

func (m *mockRepo) Save(ctx context.Context, entry *domain.CacheEntry, vector []float32) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, entry, vector)
	}
	return nil
}

func (m *mockRepo) Nearest(ctx context.Context, vector []float32, k int) ([]domain.CacheEntry, error) {
	if m.nearestFn != nil {
		return m.nearestFn(ctx, vector, k)
	}
	return nil, nil
}

func (m *mockRepo) DeleteExpired(ctx context.Context, now time.Time, ttl time.Duration) (int, error) {
	if m.deleteExpiredFn != nil {
		return m.deleteExpiredFn(ctx, now, ttl)
	}
	return 0, nil
}

func (m *mockRepo) DeleteAll(ctx context.Context) (int, error) {
	if m.deleteAllFn != nil {
		return m.deleteAllFn(ctx)
	}
	return 0, nil
}

// mockEmbedder implements Embedder for tests.
type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return m.result, m.err
}

func newTestService(t *testing.T) (*Service, *mockRepo, *mockEmbedder) {
	t.Helper()
	repo := &mockRepo{}
	emb := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}}
	svc := New(repo, emb, time.Hour, zap.NewNop())
	return svc, repo, emb
}
