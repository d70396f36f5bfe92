package querycache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/newsdex/internal/db"
	"github.com/kailas-cloud/newsdex/internal/domain"
)

const (
	keyPrefix = domain.KeyPrefix + "qcache:"
	indexName = domain.KeyPrefix + "qcache:idx"

	fieldQuery     = "query"
	fieldEntities  = "entities"
	fieldResults   = "results"
	fieldCreatedAt = "created_at"
	fieldVector    = "vector"
)

// store is the consumer interface for the query cache (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
}

// Repo persists cached queries as hashes with a binary embedding vector,
// retrievable by KNN over the query embedding.
type Repo struct {
	store store
	dims  int
}

// New creates a query cache repository. dims is the embedding dimensionality
// the vector index is created with.
func New(s store, dims int) *Repo {
	return &Repo{store: s, dims: dims}
}

// EnsureIndex creates the cache FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	def := &db.IndexDefinition{
		Name:        indexName,
		StorageType: db.StorageHash,
		Prefixes:    []string{keyPrefix},
		Fields: []db.IndexField{
			{
				Name:           fieldVector,
				Type:           db.IndexFieldVector,
				VectorDim:      r.dims,
				VectorAlgo:     db.VectorFlat,
				VectorDistance: db.DistanceCosine,
			},
		},
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create cache index: %w", err)
	}
	return nil
}

// Save stores a cache entry together with its query embedding.
func (r *Repo) Save(ctx context.Context, entry *domain.CacheEntry, vector []float32) error {
	if entry.ID == "" {
		return fmt.Errorf("%w: cache entry id is empty", domain.ErrInvalidArgument)
	}
	if len(vector) == 0 {
		return fmt.Errorf("%w: cache entry vector is empty", domain.ErrInvalidArgument)
	}

	fields, err := buildHashFields(entry, vector)
	if err != nil {
		return err
	}

	key := entryKey(entry.ID)
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset %s: %w", key, storeErr(err))
	}
	return nil
}

// Nearest returns the k entries closest to the given embedding, most
// similar first, with Similarity populated.
func (r *Repo) Nearest(ctx context.Context, vector []float32, k int) ([]domain.CacheEntry, error) {
	if k <= 0 {
		k = 1
	}

	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    indexName,
		Vector:       vector,
		K:            k,
		ReturnFields: []string{fieldQuery, fieldEntities, fieldResults, fieldCreatedAt, "__vector_score"},
	})
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", storeErr(err))
	}
	if sr == nil || sr.Total == 0 {
		return nil, nil
	}

	entries := make([]domain.CacheEntry, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		entry := parseHashFields(entryID(e.Key), e.Fields)
		entry.Similarity = e.Score
		entries = append(entries, entry)
	}
	return entries, nil
}

// Delete removes a single cache entry.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := entryKey(id)
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, storeErr(err))
	}
	return nil
}

// DeleteExpired sweeps entries older than ttl. Returns the number removed.
func (r *Repo) DeleteExpired(ctx context.Context, now time.Time, ttl time.Duration) (int, error) {
	keys, err := r.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return 0, fmt.Errorf("scan cache keys: %w", storeErr(err))
	}

	removed := 0
	for _, key := range keys {
		fields, err := r.store.HGetAll(ctx, key)
		if err != nil {
			continue
		}
		entry := parseHashFields(entryID(key), fields)
		if !entry.Expired(now, ttl) {
			continue
		}
		if err := r.store.Del(ctx, key); err != nil {
			continue
		}
		removed++
	}
	return removed, nil
}

// DeleteAll removes every cache entry. Returns the number removed.
func (r *Repo) DeleteAll(ctx context.Context) (int, error) {
	keys, err := r.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return 0, fmt.Errorf("scan cache keys: %w", storeErr(err))
	}

	removed := 0
	for _, key := range keys {
		if err := r.store.Del(ctx, key); err != nil {
			continue
		}
		removed++
	}
	return removed, nil
}

func entryKey(id string) string {
	return keyPrefix + id
}

// storeErr tags connection-level store failures with the domain sentinel
// so transport maps them to 503 instead of a generic internal error.
func storeErr(err error) error {
	if errors.Is(err, db.ErrUnavailable) {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return err
}

func entryID(key string) string {
	return strings.TrimPrefix(key, keyPrefix)
}

func buildHashFields(entry *domain.CacheEntry, vector []float32) (map[string]string, error) {
	entitiesJSON, err := json.Marshal(entry.Entities)
	if err != nil {
		return nil, fmt.Errorf("marshal entities: %w", err)
	}
	resultsJSON, err := json.Marshal(entry.Results)
	if err != nil {
		return nil, fmt.Errorf("marshal results: %w", err)
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return map[string]string{
		fieldQuery:     entry.Query,
		fieldEntities:  string(entitiesJSON),
		fieldResults:   string(resultsJSON),
		fieldCreatedAt: strconv.FormatInt(createdAt.Unix(), 10),
		fieldVector:    vectorToBytes(vector),
	}, nil
}

func parseHashFields(id string, fields map[string]string) domain.CacheEntry {
	entry := domain.CacheEntry{
		ID:    id,
		Query: fields[fieldQuery],
	}

	if raw := fields[fieldEntities]; raw != "" {
		_ = json.Unmarshal([]byte(raw), &entry.Entities)
	}
	if raw := fields[fieldResults]; raw != "" {
		_ = json.Unmarshal([]byte(raw), &entry.Results)
	}
	if raw := fields[fieldCreatedAt]; raw != "" {
		if ts, err := strconv.ParseInt(raw, 10, 64); err == nil {
			entry.CreatedAt = time.Unix(ts, 0).UTC()
		}
	}

	return entry
}
