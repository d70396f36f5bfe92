package domain

import "time"

// KeyPrefix namespaces every key newsdex writes to the store.
const KeyPrefix = "newsdex:"

// Baseline entity categories agreed with the extractor. The store and the
// ranker treat any category name uniformly; this set is only the floor a
// rectified document must carry.
var Categories = []string{"people", "locations", "dates", "countries", "places", "events"}

// WeightedEntity is an entity surface string with its relevance score in [0,1].
type WeightedEntity struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// Document is a rectified news document: a URL-keyed record of weighted
// entities per category, sorted descending by value within each category.
type Document struct {
	URL       string                      `json:"url"`
	Entities  map[string][]WeightedEntity `json:"entities"`
	IndexedAt time.Time                   `json:"indexed_at,omitzero"`
}

// NewDocument creates a document with every baseline category present,
// possibly empty. Extra categories in entities are carried through.
func NewDocument(url string, entities map[string][]WeightedEntity) Document {
	out := make(map[string][]WeightedEntity, len(Categories))
	for _, c := range Categories {
		out[c] = []WeightedEntity{}
	}
	for c, list := range entities {
		if list == nil {
			list = []WeightedEntity{}
		}
		out[c] = list
	}
	return Document{URL: url, Entities: out}
}

// Category returns the entities of one category, nil-safe.
func (d Document) Category(name string) []WeightedEntity {
	if d.Entities == nil {
		return nil
	}
	return d.Entities[name]
}
