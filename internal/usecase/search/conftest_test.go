package search

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/newsdex/internal/domain"
)

// mockRepo implements Repository for tests.
type mockRepo struct {
	filteredSearchFn func(
		ctx context.Context, categories map[string][]string, thresholds map[string]float64,
	) ([]domain.Document, error)
	calls int
}

func (m *mockRepo) FilteredSearch(
	ctx context.Context, categories map[string][]string, thresholds map[string]float64,
) ([]domain.Document, error) {
	m.calls++
	if m.filteredSearchFn != nil {
		return m.filteredSearchFn(ctx, categories, thresholds)
	}
	return nil, nil
}

// mockExtractor implements Extractor for tests.
type mockExtractor struct {
	result map[string][]string
}

func (m *mockExtractor) Extract(_ string) map[string][]string {
	if m.result != nil {
		return m.result
	}
	return map[string][]string{}
}

func newTestService(t *testing.T) (*Service, *mockRepo, *mockExtractor) {
	t.Helper()
	repo := &mockRepo{}
	ext := &mockExtractor{}
	return New(repo, ext, zap.NewNop()), repo, ext
}

func matthewsDoc() domain.Document {
	return domain.NewDocument("https://news.example.com/matthews", map[string][]domain.WeightedEntity{
		"people":    {{Key: "John Matthews", Value: 0.9}},
		"locations": {{Key: "Boston", Value: 0.6}},
		"events":    {{Key: "protest", Value: 0.5}},
	})
}

func unrelatedDoc() domain.Document {
	return domain.NewDocument("https://news.example.com/unrelated", map[string][]domain.WeightedEntity{
		"people": {{Key: "Jane Roe", Value: 0.8}},
	})
}
