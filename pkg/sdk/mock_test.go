package newsdex

import (
	"context"

	"github.com/kailas-cloud/newsdex/internal/domain"
	aggregateuc "github.com/kailas-cloud/newsdex/internal/usecase/aggregate"
	healthuc "github.com/kailas-cloud/newsdex/internal/usecase/health"
)

// --- ingestUseCase mock ---

type mockIngestUC struct {
	fromTextFn func(ctx context.Context, text, url string, filter bool) (domain.Document, error)
	fromFileFn func(ctx context.Context, path, url string, filter bool) (domain.Document, error)
	fromDirFn  func(ctx context.Context, dir, prefix string, filter bool) (
		[]domain.Document, []aggregateuc.FileFailure, error)
}

func (m *mockIngestUC) FromText(
	ctx context.Context, text, url string, filter bool,
) (domain.Document, error) {
	return m.fromTextFn(ctx, text, url, filter)
}

func (m *mockIngestUC) FromFile(
	ctx context.Context, path, url string, filter bool,
) (domain.Document, error) {
	return m.fromFileFn(ctx, path, url, filter)
}

func (m *mockIngestUC) FromDirectory(
	ctx context.Context, dir, prefix string, filter bool,
) ([]domain.Document, []aggregateuc.FileFailure, error) {
	return m.fromDirFn(ctx, dir, prefix, filter)
}

// --- documentsUseCase mock ---

type mockDocumentsUC struct {
	getFn    func(ctx context.Context, url string) (domain.Document, error)
	deleteFn func(ctx context.Context, url string) (bool, error)
	countFn  func(ctx context.Context) (int, error)
	listFn   func(ctx context.Context, offset, limit int) ([]domain.Document, int, error)
}

func (m *mockDocumentsUC) GetByURL(ctx context.Context, url string) (domain.Document, error) {
	return m.getFn(ctx, url)
}

func (m *mockDocumentsUC) DeleteByURL(ctx context.Context, url string) (bool, error) {
	return m.deleteFn(ctx, url)
}

func (m *mockDocumentsUC) Count(ctx context.Context) (int, error) {
	return m.countFn(ctx)
}

func (m *mockDocumentsUC) List(
	ctx context.Context, offset, limit int,
) ([]domain.Document, int, error) {
	return m.listFn(ctx, offset, limit)
}

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn func(ctx context.Context, query string, thresholds map[string]float64, limit int) (
		[]domain.ScoredResult, error)
	searchEntitiesFn func(ctx context.Context, categories map[string][]string,
		thresholds map[string]float64, limit int) ([]domain.ScoredResult, error)
}

func (m *mockSearchUC) Search(
	ctx context.Context, query string, thresholds map[string]float64, limit int,
) ([]domain.ScoredResult, error) {
	return m.searchFn(ctx, query, thresholds, limit)
}

func (m *mockSearchUC) SearchEntities(
	ctx context.Context, categories map[string][]string,
	thresholds map[string]float64, limit int,
) ([]domain.ScoredResult, error) {
	return m.searchEntitiesFn(ctx, categories, thresholds, limit)
}

// --- cacheUseCase mock ---

type mockCacheUC struct {
	storeFn func(ctx context.Context, query string, results []domain.CachedResult,
		entities map[string][]string) (string, error)
	findSimilarFn  func(ctx context.Context, query string, threshold float64) (*domain.CacheEntry, error)
	clearExpiredFn func(ctx context.Context) (int, error)
	clearAllFn     func(ctx context.Context) (int, error)
}

func (m *mockCacheUC) Store(
	ctx context.Context, query string, results []domain.CachedResult,
	entities map[string][]string,
) (string, error) {
	return m.storeFn(ctx, query, results, entities)
}

func (m *mockCacheUC) FindSimilar(
	ctx context.Context, query string, threshold float64,
) (*domain.CacheEntry, error) {
	return m.findSimilarFn(ctx, query, threshold)
}

func (m *mockCacheUC) ClearExpired(ctx context.Context) (int, error) {
	return m.clearExpiredFn(ctx)
}

func (m *mockCacheUC) ClearAll(ctx context.Context) (int, error) {
	return m.clearAllFn(ctx)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(ctx context.Context) healthuc.Report {
	return m.report
}
