package newsdex

import (
	"github.com/kailas-cloud/newsdex/internal/domain"
	"github.com/kailas-cloud/newsdex/internal/usecase/aggregate"
)

// Domain types re-exported for SDK consumers.
type (
	// Document is a rectified news document keyed by URL.
	Document = domain.Document
	// WeightedEntity is an entity with its relevance score in [0,1].
	WeightedEntity = domain.WeightedEntity
	// ScoredResult is a document annotated with a combined relevance score.
	ScoredResult = domain.ScoredResult
	// CacheEntry is a cached query with its results and similarity.
	CacheEntry = domain.CacheEntry
	// CachedResult is a result projection inlined into a cache entry.
	CachedResult = domain.CachedResult
	// FileFailure records one file a directory ingestion could not process.
	FileFailure = aggregate.FileFailure
)

// Categories is the baseline set of entity categories.
var Categories = domain.Categories
