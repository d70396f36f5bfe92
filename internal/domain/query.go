package domain

// DefaultRelevanceThreshold is applied per category when the caller
// supplies no thresholds at all.
const DefaultRelevanceThreshold = 0.4

// Query is a multi-category entity query with optional per-category
// minimum entity scores. Transient; never persisted as-is.
type Query struct {
	Categories map[string][]string
	Thresholds map[string]float64
}

// IsEmpty reports whether no category carries any search term.
func (q Query) IsEmpty() bool {
	for _, terms := range q.Categories {
		if len(terms) > 0 {
			return false
		}
	}
	return true
}

// ScoredResult is a stored document annotated with the combined relevance
// score computed by the ranker.
type ScoredResult struct {
	Document
	Relevance float64 `json:"relevance_score"`
}
