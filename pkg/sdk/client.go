package newsdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/newsdex/internal/db"
	dbRedis "github.com/kailas-cloud/newsdex/internal/db/redis"
	"github.com/kailas-cloud/newsdex/internal/domain"
	"github.com/kailas-cloud/newsdex/internal/extract"
	articlerepo "github.com/kailas-cloud/newsdex/internal/repository/article"
	querycacherepo "github.com/kailas-cloud/newsdex/internal/repository/querycache"
	aggregateuc "github.com/kailas-cloud/newsdex/internal/usecase/aggregate"
	cacheuc "github.com/kailas-cloud/newsdex/internal/usecase/cache"
	healthuc "github.com/kailas-cloud/newsdex/internal/usecase/health"
	rectifyuc "github.com/kailas-cloud/newsdex/internal/usecase/rectify"
	searchuc "github.com/kailas-cloud/newsdex/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces so tests can substitute the wired services.
type ingestUseCase interface {
	FromText(ctx context.Context, text, url string, filterLowRelevance bool) (domain.Document, error)
	FromFile(ctx context.Context, path, url string, filterLowRelevance bool) (domain.Document, error)
	FromDirectory(ctx context.Context, dir, urlPrefix string, filterLowRelevance bool) (
		[]domain.Document, []aggregateuc.FileFailure, error)
}

type documentsUseCase interface {
	GetByURL(ctx context.Context, url string) (domain.Document, error)
	DeleteByURL(ctx context.Context, url string) (bool, error)
	Count(ctx context.Context) (int, error)
	List(ctx context.Context, offset, limit int) ([]domain.Document, int, error)
}

type searchUseCase interface {
	Search(ctx context.Context, query string, thresholds map[string]float64, limit int) (
		[]domain.ScoredResult, error)
	SearchEntities(ctx context.Context, categories map[string][]string,
		thresholds map[string]float64, limit int) ([]domain.ScoredResult, error)
}

type cacheUseCase interface {
	Store(ctx context.Context, query string, results []domain.CachedResult,
		entities map[string][]string) (string, error)
	FindSimilar(ctx context.Context, query string, threshold float64) (*domain.CacheEntry, error)
	ClearExpired(ctx context.Context) (int, error)
	ClearAll(ctx context.Context) (int, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the newsdex SDK entry point.
type Client struct {
	store     db.Store
	ingestSvc ingestUseCase
	docsSvc   documentsUseCase
	searchSvc searchUseCase
	cacheSvc  cacheUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a newsdex Client, connects to the database and ensures the
// search indexes exist. The provided context covers the readiness check
// and index creation.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		vectorDimensions: 1536,
		minRelevance:     0.3,
		cacheTTL:         time.Hour,
		minTextLength:    50,
		extensions:       []string{".txt", ".md", ".text"},
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("newsdex: database address required (use WithValkey or WithRedis)")
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("newsdex: database not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return wireClient(ctx, store, cfg, obs)
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "valkey", "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("newsdex: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("newsdex: unknown driver %q", cfg.driver)
	}
}

func wireClient(ctx context.Context, store db.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	articleRepo := articlerepo.New(store)
	cacheRepo := querycacherepo.New(store, cfg.vectorDimensions)

	if err := articleRepo.EnsureIndex(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("newsdex: create article index: %w", err)
	}
	if err := cacheRepo.EnsureIndex(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("newsdex: create query cache index: %w", err)
	}

	// Embedder: noop when not configured (the query cache then errors,
	// ingestion and search still work).
	var domEmb domain.Embedder = noopEmbedder{}
	if cfg.embedder != nil {
		domEmb = &embedderAdapter{inner: cfg.embedder}
	}

	// Internal services log via the observer, not zap.
	nop := zap.NewNop()

	ner := extract.NewNER()
	texts := extract.NewTextFile(cfg.extensions)

	rectifySvc := rectifyuc.New(cfg.minRelevance, nop)
	ingestSvc := aggregateuc.New(
		texts, ner, rectifySvc, articleRepo, cfg.minTextLength, cfg.extensions, nop,
	)
	searchSvc := searchuc.New(articleRepo, ner, nop)
	cacheSvc := cacheuc.New(cacheRepo, domEmb, cfg.cacheTTL, nop)
	healthSvc := healthuc.New(store, nil)

	return &Client{
		store:     store,
		ingestSvc: ingestSvc,
		docsSvc:   articleRepo,
		searchSvc: searchSvc,
		cacheSvc:  cacheSvc,
		healthSvc: healthSvc,
		obs:       obs,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// noopEmbedder returns an error on Embed call (used when no embedder configured).
type noopEmbedder struct{}

func (noopEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, errors.New(
		"newsdex: embedder not configured (use WithEmbedder for the query cache)",
	)
}
