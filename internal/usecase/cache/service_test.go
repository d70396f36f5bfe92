package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/newsdex/internal/domain"
)

var fixedNow = time.Unix(1700000000, 0).UTC()

// --- Store ---

func TestStore_FreshIDPerCall(t *testing.T) {
	svc, repo, _ := newTestService(t)
	svc.WithClock(func() time.Time { return fixedNow })

	var saved []domain.CacheEntry
	repo.saveFn = func(_ context.Context, entry *domain.CacheEntry, vector []float32) error {
		if len(vector) != 2 {
			t.Errorf("unexpected vector: %v", vector)
		}
		saved = append(saved, *entry)
		return nil
	}

	id1, err := svc.Store(context.Background(), "boston protests", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id2, err := svc.Store(context.Background(), "boston protests", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if id1 == "" || id1 == id2 {
		t.Fatalf("expected distinct fresh ids, got %q and %q", id1, id2)
	}
	if len(saved) != 2 {
		t.Fatalf("expected 2 saves, got %d", len(saved))
	}
	if !saved[0].CreatedAt.Equal(fixedNow) {
		t.Fatalf("expected timestamp %v, got %v", fixedNow, saved[0].CreatedAt)
	}
}

func TestStore_LargeResultSetNotInlined(t *testing.T) {
	svc, repo, _ := newTestService(t)

	results := make([]domain.CachedResult, maxInlineResults+1)
	for i := range results {
		results[i] = domain.CachedResult{URL: "u", Relevance: 0.5}
	}

	repo.saveFn = func(_ context.Context, entry *domain.CacheEntry, _ []float32) error {
		if entry.Results != nil {
			t.Errorf("expected results to be dropped, got %d", len(entry.Results))
		}
		return nil
	}

	if _, err := svc.Store(context.Background(), "q", results, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStore_SmallResultSetInlined(t *testing.T) {
	svc, repo, _ := newTestService(t)

	results := []domain.CachedResult{{URL: "u", Relevance: 0.5}}
	repo.saveFn = func(_ context.Context, entry *domain.CacheEntry, _ []float32) error {
		if len(entry.Results) != 1 {
			t.Errorf("expected inlined results, got %v", entry.Results)
		}
		return nil
	}

	if _, err := svc.Store(context.Background(), "q", results, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStore_EmbedderError(t *testing.T) {
	svc, _, emb := newTestService(t)
	emb.err = domain.ErrEmbeddingProviderError

	_, err := svc.Store(context.Background(), "q", nil, nil)
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected embedding error, got %v", err)
	}
}

// --- FindSimilar ---

func cachedEntry(similarity float64, age time.Duration) domain.CacheEntry {
	return domain.CacheEntry{
		ID:         "e1",
		Query:      "boston protests",
		Similarity: similarity,
		CreatedAt:  fixedNow.Add(-age),
	}
}

func TestFindSimilar_Hit(t *testing.T) {
	svc, repo, _ := newTestService(t)
	svc.WithClock(func() time.Time { return fixedNow })

	repo.nearestFn = func(_ context.Context, _ []float32, k int) ([]domain.CacheEntry, error) {
		if k != 1 {
			t.Errorf("expected k=1, got %d", k)
		}
		return []domain.CacheEntry{cachedEntry(0.95, time.Minute)}, nil
	}

	entry, err := svc.FindSimilar(context.Background(), "boston protest", 0.8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry == nil || entry.ID != "e1" {
		t.Fatalf("expected hit, got %v", entry)
	}
}

func TestFindSimilar_BelowThreshold(t *testing.T) {
	svc, repo, _ := newTestService(t)
	svc.WithClock(func() time.Time { return fixedNow })

	repo.nearestFn = func(_ context.Context, _ []float32, _ int) ([]domain.CacheEntry, error) {
		return []domain.CacheEntry{cachedEntry(0.7, time.Minute)}, nil
	}

	entry, err := svc.FindSimilar(context.Background(), "q", 0.8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry != nil {
		t.Fatalf("expected miss below threshold, got %v", entry)
	}
}

func TestFindSimilar_ExpiredBestMatchReturnsNil(t *testing.T) {
	svc, repo, _ := newTestService(t)
	svc.WithClock(func() time.Time { return fixedNow })

	// The single best match is expired. The lookup must return absent
	// rather than falling back to any other entry.
	repo.nearestFn = func(_ context.Context, _ []float32, _ int) ([]domain.CacheEntry, error) {
		return []domain.CacheEntry{cachedEntry(0.99, 2 * time.Hour)}, nil
	}

	entry, err := svc.FindSimilar(context.Background(), "q", 0.8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry != nil {
		t.Fatalf("expected nil for expired best match, got %v", entry)
	}
}

func TestFindSimilar_TTLBoundary(t *testing.T) {
	svc, repo, _ := newTestService(t)
	svc.WithClock(func() time.Time { return fixedNow })

	// Exactly at the TTL the entry is still retrievable; expiry requires
	// age strictly greater than the TTL.
	repo.nearestFn = func(_ context.Context, _ []float32, _ int) ([]domain.CacheEntry, error) {
		return []domain.CacheEntry{cachedEntry(0.9, time.Hour)}, nil
	}

	entry, err := svc.FindSimilar(context.Background(), "q", 0.8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry == nil {
		t.Fatal("expected entry exactly at TTL to be retrievable")
	}

	repo.nearestFn = func(_ context.Context, _ []float32, _ int) ([]domain.CacheEntry, error) {
		return []domain.CacheEntry{cachedEntry(0.9, time.Hour + time.Second)}, nil
	}

	entry, err = svc.FindSimilar(context.Background(), "q", 0.8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry != nil {
		t.Fatalf("expected entry just past TTL to be absent, got %v", entry)
	}
}

func TestFindSimilar_EmptyCache(t *testing.T) {
	svc, _, _ := newTestService(t)

	entry, err := svc.FindSimilar(context.Background(), "q", 0.8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry != nil {
		t.Fatalf("expected miss on empty cache, got %v", entry)
	}
}

// --- sweeps ---

func TestClearExpired(t *testing.T) {
	svc, repo, _ := newTestService(t)
	svc.WithClock(func() time.Time { return fixedNow })

	repo.deleteExpiredFn = func(_ context.Context, now time.Time, ttl time.Duration) (int, error) {
		if !now.Equal(fixedNow) {
			t.Errorf("unexpected now: %v", now)
		}
		if ttl != time.Hour {
			t.Errorf("unexpected ttl: %v", ttl)
		}
		return 3, nil
	}

	removed, err := svc.ClearExpired(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 removed, got %d", removed)
	}
}

func TestClearAll_Idempotent(t *testing.T) {
	svc, repo, _ := newTestService(t)

	calls := 0
	repo.deleteAllFn = func(_ context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 5, nil
		}
		return 0, nil
	}

	if _, err := svc.ClearAll(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	removed, err := svc.ClearAll(context.Background())
	if err != nil {
		t.Fatalf("second clear must not fail: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected 0 removed on second clear, got %d", removed)
	}
}
