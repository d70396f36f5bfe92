package search

import (
	"math"
	"strings"

	"github.com/kailas-cloud/newsdex/internal/domain"
)

// relevance computes the combined score of one document against the query:
// per-category mean over matching (term, entity) pairs, combined as a mean
// weighted by each category's term count, rounded to 3 decimals.
func relevance(doc domain.Document, categories map[string][]string) float64 {
	var weightedSum, totalWeight float64

	for category, terms := range categories {
		if len(terms) == 0 {
			continue
		}

		var sum float64
		pairs := 0
		for _, entity := range doc.Category(category) {
			for _, term := range terms {
				if termMatches(term, entity.Key) {
					sum += entity.Value
					pairs++
				}
			}
		}

		avg := 0.0
		if pairs > 0 {
			avg = sum / float64(pairs)
		}

		weight := float64(len(terms))
		weightedSum += avg * weight
		totalWeight += weight
	}

	if totalWeight == 0 {
		return 0
	}
	return math.Round(weightedSum/totalWeight*1000) / 1000
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
