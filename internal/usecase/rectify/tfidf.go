package rectify

import (
	"errors"
	"math"
	"strings"
	"unicode"
)

// errEmptyVocabulary signals that pruning removed every term, so TF-IDF
// weights cannot be computed for this corpus.
var errEmptyVocabulary = errors.New("empty vocabulary")

// maxDocFreq prunes terms present in more than this share of documents.
const maxDocFreq = 0.95

// tfidfModel holds the weighted rows of one per-category corpus. Row i
// corresponds to document i; each row maps term -> L2-normalized weight.
type tfidfModel struct {
	rows []map[string]float64
}

// fitTFIDF builds a TF-IDF model over the given documents. Terms are
// lowercase unigrams and bigrams of alphanumeric tokens at least two runes
// long. IDF is smoothed: ln((1+n)/(1+df)) + 1. Rows are L2-normalized.
func fitTFIDF(docs []string) (*tfidfModel, error) {
	n := len(docs)
	if n == 0 {
		return nil, errEmptyVocabulary
	}

	docTerms := make([][]string, n)
	for i, doc := range docs {
		docTerms[i] = ngrams(tokenize(doc))
	}

	// Document frequency over the raw vocabulary.
	df := make(map[string]int)
	for _, terms := range docTerms {
		seen := make(map[string]struct{}, len(terms))
		for _, t := range terms {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				df[t]++
			}
		}
	}

	// Prune terms that appear in more than maxDocFreq of the documents.
	vocab := make(map[string]struct{}, len(df))
	for term, freq := range df {
		if float64(freq) > maxDocFreq*float64(n) {
			continue
		}
		vocab[term] = struct{}{}
	}
	if len(vocab) == 0 {
		return nil, errEmptyVocabulary
	}

	idf := make(map[string]float64, len(vocab))
	for term := range vocab {
		idf[term] = math.Log(float64(1+n)/float64(1+df[term])) + 1
	}

	rows := make([]map[string]float64, n)
	for i, terms := range docTerms {
		tf := make(map[string]int)
		for _, t := range terms {
			if _, ok := vocab[t]; ok {
				tf[t]++
			}
		}

		row := make(map[string]float64, len(tf))
		var norm float64
		for term, count := range tf {
			w := float64(count) * idf[term]
			row[term] = w
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for term := range row {
				row[term] /= norm
			}
		}
		rows[i] = row
	}

	return &tfidfModel{rows: rows}, nil
}

// score returns the mean weight of row terms matching any word of the
// entity, whole-word or by substring either way. No matches falls back to
// the maximum weight in the row; an empty row scores 0.
func (m *tfidfModel) score(row int, entity string) float64 {
	weights := m.rows[row]
	if len(weights) == 0 {
		return 0
	}

	words := tokenize(entity)

	var sum float64
	matches := 0
	for term, w := range weights {
		if termMatchesEntity(term, words) {
			sum += w
			matches++
		}
	}
	if matches > 0 {
		return sum / float64(matches)
	}

	var maxW float64
	for _, w := range weights {
		if w > maxW {
			maxW = w
		}
	}
	return maxW
}

func termMatchesEntity(term string, words []string) bool {
	for _, w := range words {
		if term == w || strings.Contains(term, w) || strings.Contains(w, term) {
			return true
		}
	}
	return false
}

// tokenize lowercases and splits into alphanumeric runs of length >= 2.
func tokenize(s string) []string {
	var tokens []string
	var cur []rune
	flush := func() {
		if len(cur) >= 2 {
			tokens = append(tokens, string(cur))
		}
		cur = cur[:0]
	}
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur = append(cur, r)
			continue
		}
		flush()
	}
	flush()
	return tokens
}

// ngrams returns unigrams plus adjacent bigrams joined with a space.
func ngrams(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}
	out := make([]string, 0, len(tokens)*2-1)
	out = append(out, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+" "+tokens[i+1])
	}
	return out
}
