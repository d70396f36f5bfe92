package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for the ingestion and search paths.
var (
	DocumentsIndexedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "newsdex",
			Name:      "documents_indexed_total",
			Help:      "Total number of documents indexed",
		},
	)

	IngestFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdex",
			Name:      "ingest_failures_total",
			Help:      "Total number of per-file ingestion failures",
		},
		[]string{"reason"}, // "extraction" / "insufficient_content" / "store"
	)

	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdex",
			Name:      "searches_total",
			Help:      "Total number of search requests",
		},
		[]string{"kind"}, // "entities" / "text"
	)

	RectifyFallbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "newsdex",
			Name:      "rectify_fallback_total",
			Help:      "Times TF-IDF scoring degraded to frequency-based scoring",
		},
	)

	QueryCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdex",
			Name:      "query_cache_total",
			Help:      "Query cache hits, misses and expired rejections",
		},
		[]string{"result"}, // "hit" / "miss" / "expired"
	)

	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdex",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "newsdex",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdex",
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	EmbeddingErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdex",
			Name:      "embedding_errors_total",
			Help:      "Total embedding errors by reason",
		},
		[]string{"provider", "model", "reason"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdex",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var registered bool

// Register registers the newsdex Prometheus metrics. Must be called once from main.
func Register() {
	if registered {
		return
	}
	prometheus.MustRegister(DocumentsIndexedTotal)
	prometheus.MustRegister(IngestFailuresTotal)
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(RectifyFallbackTotal)
	prometheus.MustRegister(QueryCacheTotal)
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(EmbeddingTokensTotal)
	prometheus.MustRegister(EmbeddingErrorsTotal)
	prometheus.MustRegister(EmbeddingCacheTotal)
	registered = true
}
