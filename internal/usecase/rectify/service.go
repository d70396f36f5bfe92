package rectify

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/newsdex/internal/domain"
	"github.com/kailas-cloud/newsdex/internal/metrics"
)

// windowRadius is the number of characters kept on each side of an entity
// occurrence when building its local document.
const windowRadius = 50

// defaultFallbackScore is assigned when frequency fallback finds no
// occurrences at all.
const defaultFallbackScore = 0.5

// Service scores extracted entities against their source text.
type Service struct {
	minRelevance float64
	logger       *zap.Logger
}

// New creates a weighter. minRelevance is the filter threshold applied
// when filtering is requested.
func New(minRelevance float64, logger *zap.Logger) *Service {
	return &Service{minRelevance: minRelevance, logger: logger}
}

// Rectify scores every entity of every category against sourceText and
// returns a document keyed by url. Scores are in [0,1], each category
// sorted descending. Never fails for well-formed input: when TF-IDF
// cannot be computed for a category it degrades to frequency scoring.
func (s *Service) Rectify(
	entities map[string][]string, sourceText, url string, filterLowRelevance bool,
) (domain.Document, error) {
	weighted := make(map[string][]domain.WeightedEntity, len(entities))
	for category, list := range entities {
		weighted[category] = s.weighCategory(category, list, sourceText, filterLowRelevance)
	}
	return domain.NewDocument(url, weighted), nil
}

// BatchRectify scores several documents. All three slices must be the
// same length.
func (s *Service) BatchRectify(
	entityMaps []map[string][]string, texts, urls []string, filterLowRelevance bool,
) ([]domain.Document, error) {
	if len(entityMaps) != len(texts) || len(texts) != len(urls) {
		return nil, fmt.Errorf(
			"%w: batch lengths differ: entities=%d texts=%d urls=%d",
			domain.ErrInvalidArgument, len(entityMaps), len(texts), len(urls),
		)
	}

	docs := make([]domain.Document, 0, len(texts))
	for i := range texts {
		doc, err := s.Rectify(entityMaps[i], texts[i], urls[i], filterLowRelevance)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *Service) weighCategory(
	category string, entities []string, sourceText string, filterLowRelevance bool,
) []domain.WeightedEntity {
	if len(entities) == 0 {
		return []domain.WeightedEntity{}
	}

	occurrences := make([]int, len(entities))
	localDocs := make([]string, len(entities))
	for i, entity := range entities {
		occ, local := localDocument(sourceText, entity)
		occurrences[i] = occ
		localDocs[i] = local
	}

	scores := s.tfidfScores(category, entities, localDocs, occurrences)

	out := make([]domain.WeightedEntity, 0, len(entities))
	for i, entity := range entities {
		value := roundTo(scores[i], 2)
		if filterLowRelevance && value < s.minRelevance {
			continue
		}
		out = append(out, domain.WeightedEntity{Key: entity, Value: value})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	return out
}

// tfidfScores computes the per-entity scores for one category, degrading
// to frequency scoring when the vectorizer cannot be fit.
func (s *Service) tfidfScores(category string, entities, localDocs []string, occurrences []int) []float64 {
	model, err := fitTFIDF(localDocs)
	if err != nil {
		s.logger.Debug("TF-IDF degraded to frequency scoring",
			zap.String("category", category),
			zap.Int("entities", len(entities)),
			zap.Error(err),
		)
		metrics.RectifyFallbackTotal.Inc()
		return frequencyScores(occurrences)
	}

	scores := make([]float64, len(entities))
	for i, entity := range entities {
		score := model.score(i, entity)
		score = math.Min(1, score*2)
		boost := math.Min(1, float64(occurrences[i])*0.1)
		scores[i] = math.Min(1, score+boost*0.2)
	}
	return scores
}

// frequencyScores normalizes raw occurrence counts by the category
// maximum. When nothing occurs at all every entity gets the default.
func frequencyScores(occurrences []int) []float64 {
	maxOcc := 0
	for _, occ := range occurrences {
		if occ > maxOcc {
			maxOcc = occ
		}
	}

	scores := make([]float64, len(occurrences))
	if maxOcc == 0 {
		for i := range scores {
			scores[i] = defaultFallbackScore
		}
		return scores
	}
	for i, occ := range occurrences {
		scores[i] = float64(occ) / float64(maxOcc)
	}
	return scores
}

// localDocument counts case-insensitive occurrences of entity in text and
// concatenates a fixed-radius window around each. An entity that never
// occurs degrades to the entity string itself.
//
// Windows are sliced from the lowercased text: case folding can change the
// UTF-8 byte length, so match offsets are only valid there. Tokenization
// lowercases anyway, so the scores are unaffected.
func localDocument(text, entity string) (int, string) {
	if entity == "" {
		return 0, ""
	}

	lowerText := strings.ToLower(text)
	lowerEntity := strings.ToLower(entity)

	var windows []string
	count := 0
	for from := 0; ; {
		idx := strings.Index(lowerText[from:], lowerEntity)
		if idx < 0 {
			break
		}
		idx += from
		count++

		start := idx - windowRadius
		if start < 0 {
			start = 0
		}
		end := idx + len(lowerEntity) + windowRadius
		if end > len(lowerText) {
			end = len(lowerText)
		}
		windows = append(windows, lowerText[start:end])

		from = idx + len(lowerEntity)
	}

	if count == 0 {
		return 0, entity
	}
	return count, strings.Join(windows, " ")
}

func roundTo(v float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(v*shift) / shift
}
