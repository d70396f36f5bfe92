package aggregate

import (
	"context"

	"github.com/kailas-cloud/newsdex/internal/domain"
)

// Rectifier scores extracted entities against their source text.
type Rectifier interface {
	Rectify(entities map[string][]string, sourceText, url string, filterLowRelevance bool) (domain.Document, error)
}

// Repository persists rectified documents.
type Repository interface {
	Upsert(ctx context.Context, doc *domain.Document) (bool, error)
}
