package article

import (
	"encoding/json"
	"time"

	"github.com/kailas-cloud/newsdex/internal/domain"
)

// jsonDoc is the storage shape of a rectified document. indexed_at is kept
// as unix seconds so the FT index can treat it as NUMERIC.
type jsonDoc struct {
	URL       string                             `json:"url"`
	Entities  map[string][]domain.WeightedEntity `json:"entities"`
	IndexedAt int64                              `json:"indexed_at"`
}

func buildJSONDoc(doc *domain.Document) jsonDoc {
	indexedAt := doc.IndexedAt
	if indexedAt.IsZero() {
		indexedAt = time.Now()
	}
	entities := doc.Entities
	if entities == nil {
		entities = map[string][]domain.WeightedEntity{}
	}
	return jsonDoc{
		URL:       doc.URL,
		Entities:  entities,
		IndexedAt: indexedAt.Unix(),
	}
}

func (d jsonDoc) toDomain() domain.Document {
	entities := d.Entities
	if entities == nil {
		entities = map[string][]domain.WeightedEntity{}
	}
	return domain.Document{
		URL:       d.URL,
		Entities:  entities,
		IndexedAt: time.Unix(d.IndexedAt, 0).UTC(),
	}
}

// parseJSONGetResult handles JSON.GET "$" output, which wraps the document
// in a one-element array.
func parseJSONGetResult(raw []byte) (domain.Document, error) {
	var docs []jsonDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		// Some servers return the bare object for a root path.
		var single jsonDoc
		if err2 := json.Unmarshal(raw, &single); err2 == nil {
			return single.toDomain(), nil
		}
		return domain.Document{}, err
	}
	if len(docs) == 0 {
		return domain.Document{}, domain.ErrDocumentNotFound
	}
	return docs[0].toDomain(), nil
}
