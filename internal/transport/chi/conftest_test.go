package chi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/newsdex/internal/domain"
	"github.com/kailas-cloud/newsdex/internal/usecase/aggregate"
	healthuc "github.com/kailas-cloud/newsdex/internal/usecase/health"
)

type mockIngestor struct {
	fromTextFn      func(ctx context.Context, text, url string, filter bool) (domain.Document, error)
	fromDirectoryFn func(ctx context.Context, dir, prefix string, filter bool) (
		[]domain.Document, []aggregate.FileFailure, error)
}

func (m *mockIngestor) FromText(
	ctx context.Context, text, url string, filter bool,
) (domain.Document, error) {
	return m.fromTextFn(ctx, text, url, filter)
}

func (m *mockIngestor) FromDirectory(
	ctx context.Context, dir, prefix string, filter bool,
) ([]domain.Document, []aggregate.FileFailure, error) {
	return m.fromDirectoryFn(ctx, dir, prefix, filter)
}

type mockDocuments struct {
	getByURLFn    func(ctx context.Context, url string) (domain.Document, error)
	deleteByURLFn func(ctx context.Context, url string) (bool, error)
	countFn       func(ctx context.Context) (int, error)
	listFn        func(ctx context.Context, offset, limit int) ([]domain.Document, int, error)
}

func (m *mockDocuments) GetByURL(ctx context.Context, url string) (domain.Document, error) {
	return m.getByURLFn(ctx, url)
}

func (m *mockDocuments) DeleteByURL(ctx context.Context, url string) (bool, error) {
	return m.deleteByURLFn(ctx, url)
}

func (m *mockDocuments) Count(ctx context.Context) (int, error) {
	return m.countFn(ctx)
}

func (m *mockDocuments) List(
	ctx context.Context, offset, limit int,
) ([]domain.Document, int, error) {
	return m.listFn(ctx, offset, limit)
}

type mockSearcher struct {
	searchFn func(ctx context.Context, query string, thresholds map[string]float64, limit int) (
		[]domain.ScoredResult, error)
	searchEntitiesFn func(ctx context.Context, categories map[string][]string,
		thresholds map[string]float64, limit int) ([]domain.ScoredResult, error)
}

func (m *mockSearcher) Search(
	ctx context.Context, query string, thresholds map[string]float64, limit int,
) ([]domain.ScoredResult, error) {
	return m.searchFn(ctx, query, thresholds, limit)
}

func (m *mockSearcher) SearchEntities(
	ctx context.Context, categories map[string][]string,
	thresholds map[string]float64, limit int,
) ([]domain.ScoredResult, error) {
	return m.searchEntitiesFn(ctx, categories, thresholds, limit)
}

type mockCache struct {
	storeFn func(ctx context.Context, query string, results []domain.CachedResult,
		entities map[string][]string) (string, error)
	findSimilarFn  func(ctx context.Context, query string, threshold float64) (*domain.CacheEntry, error)
	clearExpiredFn func(ctx context.Context) (int, error)
	clearAllFn     func(ctx context.Context) (int, error)
}

func (m *mockCache) Store(
	ctx context.Context, query string, results []domain.CachedResult,
	entities map[string][]string,
) (string, error) {
	return m.storeFn(ctx, query, results, entities)
}

func (m *mockCache) FindSimilar(
	ctx context.Context, query string, threshold float64,
) (*domain.CacheEntry, error) {
	return m.findSimilarFn(ctx, query, threshold)
}

func (m *mockCache) ClearExpired(ctx context.Context) (int, error) {
	return m.clearExpiredFn(ctx)
}

func (m *mockCache) ClearAll(ctx context.Context) (int, error) {
	return m.clearAllFn(ctx)
}

type mockImprover struct {
	improveFn func(ctx context.Context, query string, hints map[string][]string) domain.Improvement
}

func (m *mockImprover) Improve(
	ctx context.Context, query string, hints map[string][]string,
) domain.Improvement {
	return m.improveFn(ctx, query, hints)
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(ctx context.Context) healthuc.Report {
	return m.report
}

// serverDeps bundles every mock so tests override only what they need.
type serverDeps struct {
	ingest    *mockIngestor
	documents *mockDocuments
	search    *mockSearcher
	cache     *mockCache
	improver  *mockImprover
	health    *mockHealth
}

func newTestServer(t *testing.T, deps serverDeps) http.Handler {
	t.Helper()

	var cache QueryCache
	if deps.cache != nil {
		cache = deps.cache
	}
	var improver domain.QueryImprover
	if deps.improver != nil {
		improver = deps.improver
	}
	var health HealthChecker = deps.health
	if deps.health == nil {
		health = &mockHealth{report: healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK},
		}}
	}

	srv := NewServer(
		deps.ingest, deps.documents, deps.search, cache, improver, health,
		Options{DefaultLimit: 10, MaxLimit: 100, CacheThreshold: 0.85},
		zap.NewNop(),
	)

	r := chirouter.NewRouter()
	srv.RegisterRoutes(r)
	return r
}

func doRequest(t *testing.T, h http.Handler, method, target string, body *string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(*body))
	} else {
		req = httptest.NewRequest(method, target, http.NoBody)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}
