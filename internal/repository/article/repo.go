package article

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/newsdex/internal/db"
	"github.com/kailas-cloud/newsdex/internal/domain"
)

const (
	keyPrefix = domain.KeyPrefix + "article:"
	indexName = domain.KeyPrefix + "article:idx"

	// listBatch is the FT.SEARCH page size used when walking the corpus.
	listBatch = 200
)

// store is the consumer interface for articles (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
}

// Repo persists rectified documents keyed by article URL.
type Repo struct {
	store store
}

// New creates an article repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// EnsureIndex creates the article FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	def := &db.IndexDefinition{
		Name:        indexName,
		StorageType: db.StorageJSON,
		Prefixes:    []string{keyPrefix},
		Fields: []db.IndexField{
			{Name: "$.url", Alias: "url", Type: db.IndexFieldTag},
			{Name: "$.indexed_at", Alias: "indexed_at", Type: db.IndexFieldNumeric},
		},
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create article index: %w", err)
	}
	return nil
}

// Upsert creates or replaces the document stored under its URL.
// Returns true when the document did not exist before.
func (r *Repo) Upsert(ctx context.Context, doc *domain.Document) (bool, error) {
	if doc.URL == "" {
		return false, fmt.Errorf("%w: document url is empty", domain.ErrInvalidArgument)
	}

	key := docKey(doc.URL)
	data, err := json.Marshal(buildJSONDoc(doc))
	if err != nil {
		return false, fmt.Errorf("marshal document: %w", err)
	}

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check exists %s: %w", key, storeErr(err))
	}

	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return false, fmt.Errorf("json.set %s: %w", key, storeErr(err))
	}

	return !exists, nil
}

// GetByURL returns the document stored under the given URL.
func (r *Repo) GetByURL(ctx context.Context, url string) (domain.Document, error) {
	key := docKey(url)
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.Document{}, domain.ErrDocumentNotFound
		}
		return domain.Document{}, fmt.Errorf("json.get %s: %w", key, storeErr(err))
	}
	return parseJSONGetResult(raw)
}

// DeleteByURL removes a document. Returns true when a document existed.
func (r *Repo) DeleteByURL(ctx context.Context, url string) (bool, error) {
	key := docKey(url)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check exists %s: %w", key, storeErr(err))
	}
	if !exists {
		return false, nil
	}

	if err := r.store.Del(ctx, key); err != nil {
		return false, fmt.Errorf("del %s: %w", key, storeErr(err))
	}
	return true, nil
}

// Count returns the number of stored documents.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, indexName, "*")
	if err != nil {
		return 0, fmt.Errorf("search count: %w", storeErr(err))
	}
	return n, nil
}

// List returns one page of documents ordered by the FT index.
func (r *Repo) List(ctx context.Context, offset, limit int) ([]domain.Document, int, error) {
	if limit <= 0 {
		limit = listBatch
	}

	result, err := r.store.SearchList(ctx, indexName, "*", offset, limit, []string{"$"})
	if err != nil {
		return nil, 0, fmt.Errorf("search list: %w", storeErr(err))
	}
	if result == nil || result.Total == 0 {
		return nil, 0, nil
	}

	docs := make([]domain.Document, 0, len(result.Entries))
	for _, entry := range result.Entries {
		jsonStr := entry.Fields["$"]
		if jsonStr == "" {
			continue
		}
		var d jsonDoc
		if err := json.Unmarshal([]byte(jsonStr), &d); err != nil {
			continue
		}
		docs = append(docs, d.toDomain())
	}

	return docs, result.Total, nil
}

// All walks the whole corpus page by page. The corpus is expected to fit
// in memory for the ranking workloads this store serves.
func (r *Repo) All(ctx context.Context) ([]domain.Document, error) {
	var docs []domain.Document
	offset := 0
	for {
		page, total, err := r.List(ctx, offset, listBatch)
		if err != nil {
			return nil, err
		}
		docs = append(docs, page...)
		offset += listBatch
		if offset >= total || len(page) == 0 {
			break
		}
	}
	return docs, nil
}

// FilteredSearch returns every document where at least one queried category
// holds an entity matching one of that category's terms and, when a
// threshold is set for the category, scoring at or above it. OR across
// categories. Matching is bidirectional case-insensitive containment.
func (r *Repo) FilteredSearch(
	ctx context.Context, categories map[string][]string, thresholds map[string]float64,
) ([]domain.Document, error) {
	docs, err := r.All(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		if matchesQuery(doc, categories, thresholds) {
			matched = append(matched, doc)
		}
	}
	return matched, nil
}

func matchesQuery(doc domain.Document, categories map[string][]string, thresholds map[string]float64) bool {
	for category, terms := range categories {
		if len(terms) == 0 {
			continue
		}
		threshold, hasThreshold := thresholds[category]
		for _, entity := range doc.Category(category) {
			if hasThreshold && entity.Value < threshold {
				continue
			}
			for _, term := range terms {
				if termMatches(term, entity.Key) {
					return true
				}
			}
		}
	}
	return false
}

// termMatches reports bidirectional case-insensitive substring containment.
func termMatches(term, key string) bool {
	t := strings.ToLower(term)
	k := strings.ToLower(key)
	if t == "" || k == "" {
		return false
	}
	return strings.Contains(k, t) || strings.Contains(t, k)
}

func docKey(url string) string {
	return keyPrefix + url
}

// storeErr tags connection-level store failures with the domain sentinel
// so transport maps them to 503 instead of a generic internal error.
func storeErr(err error) error {
	if errors.Is(err, db.ErrUnavailable) {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return err
}
