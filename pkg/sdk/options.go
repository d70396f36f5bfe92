package newsdex

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "valkey" or "redis"
	addrs    []string
	password string

	embedder Embedder

	vectorDimensions int
	minRelevance     float64
	cacheTTL         time.Duration
	minTextLength    int
	extensions       []string

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithValkey configures the client to connect to a Valkey instance.
// Valkey speaks the Redis protocol; both share the same driver.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithEmbedder sets the text embedding provider.
// Required for the semantic query cache; ingestion and search work without it.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithVectorDimensions sets the query cache embedding dimension.
// Defaults to 1536 (text-embedding-3-small).
func WithVectorDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorDimensions = dim
	})
}

// WithMinRelevance sets the cutoff below which weighted entities are
// dropped during ingestion. Defaults to 0.3.
func WithMinRelevance(min float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.minRelevance = min
	})
}

// WithCacheTTL sets the query cache entry lifetime. Defaults to one hour.
func WithCacheTTL(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheTTL = ttl
	})
}

// WithIngestRules sets the minimum text length and the file extensions
// directory ingestion picks up. Defaults: 50 runes, .txt/.md/.text.
func WithIngestRules(minTextLength int, extensions []string) Option {
	return optionFunc(func(c *clientConfig) {
		c.minTextLength = minTextLength
		c.extensions = extensions
	})
}

// WithLogger enables operation logging through the given slog logger.
func WithLogger(logger *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = logger
	})
}

// WithMetrics registers SDK operation metrics with the given registerer.
func WithMetrics(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
