package newsdex

import "github.com/kailas-cloud/newsdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrDocumentNotFound       = domain.ErrDocumentNotFound
	ErrStoreUnavailable       = domain.ErrStoreUnavailable
	ErrInvalidArgument        = domain.ErrInvalidArgument
	ErrInsufficientContent    = domain.ErrInsufficientContent
	ErrExtractionFailed       = domain.ErrExtractionFailed
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
)
