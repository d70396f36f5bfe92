package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/newsdex/internal/domain"
	"github.com/kailas-cloud/newsdex/internal/usecase/aggregate"
	healthuc "github.com/kailas-cloud/newsdex/internal/usecase/health"
)

// errorCode is the machine-readable error discriminator in responses.
type errorCode string

const (
	codeBadRequest           errorCode = "bad_request"
	codeValidationFailed     errorCode = "validation_failed"
	codeUnauthorized         errorCode = "unauthorized"
	codeDocumentNotFound     errorCode = "document_not_found"
	codeInsufficientContent  errorCode = "insufficient_content"
	codeExtractionFailed     errorCode = "extraction_failed"
	codeStoreUnavailable     errorCode = "store_unavailable"
	codeEmbeddingProviderErr errorCode = "embedding_provider_error"
	codeCacheMiss            errorCode = "cache_miss"
	codeInternalError        errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Ingestor runs the ingestion pipeline.
type Ingestor interface {
	FromText(ctx context.Context, text, url string, filterLowRelevance bool) (domain.Document, error)
	FromDirectory(ctx context.Context, dir, urlPrefix string, filterLowRelevance bool) (
		[]domain.Document, []aggregate.FileFailure, error)
}

// DocumentStore reads and deletes stored documents.
type DocumentStore interface {
	GetByURL(ctx context.Context, url string) (domain.Document, error)
	DeleteByURL(ctx context.Context, url string) (bool, error)
	Count(ctx context.Context) (int, error)
	List(ctx context.Context, offset, limit int) ([]domain.Document, int, error)
}

// Searcher ranks documents against entity queries.
type Searcher interface {
	Search(ctx context.Context, query string, thresholds map[string]float64, limit int) (
		[]domain.ScoredResult, error)
	SearchEntities(ctx context.Context, categories map[string][]string,
		thresholds map[string]float64, limit int) ([]domain.ScoredResult, error)
}

// QueryCache is the semantic query cache.
type QueryCache interface {
	Store(ctx context.Context, query string, results []domain.CachedResult,
		entities map[string][]string) (string, error)
	FindSimilar(ctx context.Context, query string, threshold float64) (*domain.CacheEntry, error)
	ClearExpired(ctx context.Context) (int, error)
	ClearAll(ctx context.Context) (int, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Options carries the request-level limits and cache tuning.
type Options struct {
	DefaultLimit   int
	MaxLimit       int
	CacheThreshold float64
}

// Server is the HTTP API.
type Server struct {
	ingest        Ingestor
	documents     DocumentStore
	search        Searcher
	cache         QueryCache
	improver      domain.QueryImprover
	health        HealthChecker
	opts          Options
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. cache and improver may be nil;
// the corresponding endpoints then report the feature as unavailable.
func NewServer(
	ingest Ingestor,
	documents DocumentStore,
	search Searcher,
	cache QueryCache,
	improver domain.QueryImprover,
	health HealthChecker,
	opts Options,
	logger *zap.Logger,
) *Server {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 10
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = 100
	}
	s := &Server{
		ingest:    ingest,
		documents: documents,
		search:    search,
		cache:     cache,
		improver:  improver,
		health:    health,
		opts:      opts,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, codeDocumentNotFound),
		sentinelHandler(domain.ErrInvalidArgument, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrInsufficientContent, http.StatusUnprocessableEntity, codeInsufficientContent),
		sentinelHandler(domain.ErrExtractionFailed, http.StatusUnprocessableEntity, codeExtractionFailed),
		sentinelHandler(domain.ErrStoreUnavailable, http.StatusServiceUnavailable, codeStoreUnavailable),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProviderErr),
	}
	return s
}

// RegisterRoutes mounts all API routes on the router.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Post("/documents", s.ingestDocument)
	r.Post("/documents/batch", s.ingestDirectory)
	r.Get("/documents", s.getDocuments)
	r.Delete("/documents", s.deleteDocument)
	r.Get("/documents/count", s.countDocuments)
	r.Get("/search", s.searchText)
	r.Post("/search/entities", s.searchEntities)
	r.Post("/cache/lookup", s.cacheLookup)
	r.Post("/cache/clear-expired", s.cacheClearExpired)
	r.Post("/cache/clear", s.cacheClearAll)
	r.Get("/health", s.healthCheck)
	r.Get("/metrics", s.metricsHandler)
}

type ingestRequest struct {
	URL                string `json:"url"`
	Text               string `json:"text"`
	FilterLowRelevance *bool  `json:"filter_low_relevance"`
}

// ingestDocument handles POST /documents.
func (s *Server) ingestDocument(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "url is required")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "text is required")
		return
	}

	filter := true
	if req.FilterLowRelevance != nil {
		filter = *req.FilterLowRelevance
	}

	doc, err := s.ingest.FromText(r.Context(), req.Text, req.URL, filter)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, doc)
}

type batchIngestRequest struct {
	Directory          string `json:"directory"`
	URLPrefix          string `json:"url_prefix"`
	FilterLowRelevance *bool  `json:"filter_low_relevance"`
}

type batchFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

type batchIngestResponse struct {
	Indexed   int               `json:"indexed"`
	Failed    int               `json:"failed"`
	Documents []domain.Document `json:"documents"`
	Failures  []batchFailure    `json:"failures,omitempty"`
}

// ingestDirectory handles POST /documents/batch.
func (s *Server) ingestDirectory(w http.ResponseWriter, r *http.Request) {
	var req batchIngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Directory == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "directory is required")
		return
	}

	filter := true
	if req.FilterLowRelevance != nil {
		filter = *req.FilterLowRelevance
	}

	docs, failures, err := s.ingest.FromDirectory(r.Context(), req.Directory, req.URLPrefix, filter)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := batchIngestResponse{
		Indexed:   len(docs),
		Failed:    len(failures),
		Documents: docs,
	}
	for _, f := range failures {
		resp.Failures = append(resp.Failures, batchFailure{Path: f.Path, Error: f.Err.Error()})
	}
	if resp.Documents == nil {
		resp.Documents = []domain.Document{}
	}

	writeJSON(w, http.StatusOK, resp)
}

type documentListResponse struct {
	Items []domain.Document `json:"items"`
	Total int               `json:"total"`
}

// getDocuments handles GET /documents. With ?url= it returns the single
// document; without it, a paged listing via ?offset= and ?limit=.
func (s *Server) getDocuments(w http.ResponseWriter, r *http.Request) {
	if url := r.URL.Query().Get("url"); url != "" {
		doc, err := s.documents.GetByURL(r.Context(), url)
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, doc)
		return
	}

	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", s.opts.DefaultLimit)
	if limit > s.opts.MaxLimit {
		limit = s.opts.MaxLimit
	}

	docs, total, err := s.documents.List(r.Context(), offset, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if docs == nil {
		docs = []domain.Document{}
	}

	writeJSON(w, http.StatusOK, documentListResponse{Items: docs, Total: total})
}

// deleteDocument handles DELETE /documents?url=.
func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "url query parameter is required")
		return
	}

	deleted, err := s.documents.DeleteByURL(r.Context(), url)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, codeDocumentNotFound, domain.ErrDocumentNotFound.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// countDocuments handles GET /documents/count.
func (s *Server) countDocuments(w http.ResponseWriter, r *http.Request) {
	count, err := s.documents.Count(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

type searchResponse struct {
	Query         string                `json:"query"`
	ImprovedQuery string                `json:"improved_query,omitempty"`
	Results       []domain.ScoredResult `json:"results"`
	Total         int                   `json:"total"`
	Cached        bool                  `json:"cached"`
	Similarity    float64               `json:"similarity,omitempty"`
}

// searchText handles GET /search?q=&limit=. With improve=true the query
// is first rewritten by the assistant. Cache failures never fail the
// search; they are logged and the request proceeds against the store.
func (s *Server) searchText(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "q query parameter is required")
		return
	}

	limit := queryInt(r, "limit", s.opts.DefaultLimit)
	if limit > s.opts.MaxLimit {
		limit = s.opts.MaxLimit
	}

	var hints map[string][]string
	cachedWithoutResults := false
	if s.cache != nil {
		entry, err := s.cache.FindSimilar(r.Context(), query, s.opts.CacheThreshold)
		switch {
		case err != nil:
			s.logger.Warn("cache lookup failed", zap.String("query", query), zap.Error(err))
		case entry != nil && len(entry.Results) > 0:
			writeJSON(w, http.StatusOK, searchResponse{
				Query:      query,
				Results:    cachedToScored(entry.Results),
				Total:      len(entry.Results),
				Cached:     true,
				Similarity: entry.Similarity,
			})
			return
		case entry != nil:
			// Similar query known but its results were too large to inline.
			hints = entry.Entities
			cachedWithoutResults = true
		}
	}

	effective := query
	improved := ""
	if r.URL.Query().Get("improve") == "true" && s.improver != nil {
		imp := s.improver.Improve(r.Context(), query, hints)
		if imp.ImprovedQuery != "" && imp.ImprovedQuery != query {
			effective = imp.ImprovedQuery
			improved = imp.ImprovedQuery
		}
	}

	results, err := s.search.Search(r.Context(), effective, nil, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if results == nil {
		results = []domain.ScoredResult{}
	}

	if s.cache != nil && !cachedWithoutResults {
		if _, err := s.cache.Store(r.Context(), query, scoredToCached(results), nil); err != nil {
			s.logger.Warn("cache store failed", zap.String("query", query), zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Query:         query,
		ImprovedQuery: improved,
		Results:       results,
		Total:         len(results),
	})
}

type entitySearchRequest struct {
	Categories map[string][]string `json:"categories"`
	Thresholds map[string]float64  `json:"thresholds"`
	Limit      int                 `json:"limit"`
}

// searchEntities handles POST /search/entities.
func (s *Server) searchEntities(w http.ResponseWriter, r *http.Request) {
	var req entitySearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.opts.DefaultLimit
	}
	if limit > s.opts.MaxLimit {
		limit = s.opts.MaxLimit
	}

	results, err := s.search.SearchEntities(r.Context(), req.Categories, req.Thresholds, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if results == nil {
		results = []domain.ScoredResult{}
	}

	writeJSON(w, http.StatusOK, searchResponse{Results: results, Total: len(results)})
}

type cacheLookupRequest struct {
	Query     string   `json:"query"`
	Threshold *float64 `json:"threshold"`
}

// cacheLookup handles POST /cache/lookup.
func (s *Server) cacheLookup(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		writeError(w, http.StatusServiceUnavailable, codeStoreUnavailable, "query cache is disabled")
		return
	}

	var req cacheLookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "query is required")
		return
	}

	threshold := s.opts.CacheThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	entry, err := s.cache.FindSimilar(r.Context(), req.Query, threshold)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if entry == nil {
		writeError(w, http.StatusNotFound, codeCacheMiss, "no similar cached query")
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

// cacheClearExpired handles POST /cache/clear-expired.
func (s *Server) cacheClearExpired(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		writeError(w, http.StatusServiceUnavailable, codeStoreUnavailable, "query cache is disabled")
		return
	}

	removed, err := s.cache.ClearExpired(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// cacheClearAll handles POST /cache/clear.
func (s *Server) cacheClearAll(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		writeError(w, http.StatusServiceUnavailable, codeStoreUnavailable, "query cache is disabled")
		return
	}

	removed, err := s.cache.ClearAll(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// healthCheck handles GET /health.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// metricsHandler handles GET /metrics.
func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func cachedToScored(cached []domain.CachedResult) []domain.ScoredResult {
	out := make([]domain.ScoredResult, len(cached))
	for i, c := range cached {
		out[i] = domain.ScoredResult{
			Document:  domain.Document{URL: c.URL, Entities: c.Entities},
			Relevance: c.Relevance,
		}
	}
	return out
}

func scoredToCached(results []domain.ScoredResult) []domain.CachedResult {
	out := make([]domain.CachedResult, len(results))
	for i, r := range results {
		out[i] = domain.CachedResult{
			URL:       r.URL,
			Relevance: r.Relevance,
			Entities:  r.Entities,
		}
	}
	return out
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrDocumentNotFound,
		domain.ErrInvalidArgument,
		domain.ErrInsufficientContent,
		domain.ErrExtractionFailed,
		domain.ErrStoreUnavailable,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
