package domain

import "errors"

var (
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrStoreUnavailable signals an unreachable persistence engine.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrInvalidArgument signals malformed input: mismatched batch lengths,
	// malformed query shape.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInsufficientContent signals extracted text below the usable minimum.
	ErrInsufficientContent = errors.New("insufficient content")
	// ErrExtractionFailed signals that no text could be obtained from a source.
	ErrExtractionFailed = errors.New("extraction failed")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)
