package search

import (
	"context"

	"github.com/kailas-cloud/newsdex/internal/domain"
)

// Repository defines the storage contract for ranked entity search.
type Repository interface {
	FilteredSearch(
		ctx context.Context, categories map[string][]string, thresholds map[string]float64,
	) ([]domain.Document, error)
}

// Extractor maps free-text queries to categorized entities.
type Extractor interface {
	Extract(text string) map[string][]string
}
