package domain

import "context"

// TextExtractor obtains plain text from a source file. OCR and PDF
// rendering live behind this boundary; the core only sees the string.
type TextExtractor interface {
	Extract(path string) (string, error)
}

// EntityExtractor maps text to category-bucketed entity strings. Every
// baseline category key is present in the result, possibly empty.
type EntityExtractor interface {
	Extract(text string) map[string][]string
}

// Improvement is the assistant's rewrite of a search query.
type Improvement struct {
	OriginalQuery string              `json:"original_query"`
	ImprovedQuery string              `json:"improved_query"`
	Entities      map[string][]string `json:"entities"`
	Confidence    float64             `json:"confidence"`
}

// QueryImprover rewrites vague queries. Implementations never fail the
// caller: on any internal error they return the original query with empty
// entities and confidence 0.
type QueryImprover interface {
	Improve(ctx context.Context, query string, hints map[string][]string) Improvement
}
