package rectify

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/newsdex/internal/domain"
)

const newsText = `John Matthews spoke in Boston on Tuesday about the upcoming
election. Witnesses said John Matthews arrived early and left after the
protest near the harbor. Boston officials declined to comment on the
election schedule. The protest continued into the evening.`

func newTestService(t *testing.T) *Service {
	t.Helper()
	return New(0.3, zap.NewNop())
}

func TestRectify_ScoresInRange(t *testing.T) {
	svc := newTestService(t)

	doc, err := svc.Rectify(map[string][]string{
		"people":    {"John Matthews"},
		"locations": {"Boston", "harbor"},
		"events":    {"protest", "election"},
	}, newsText, "https://news.example.com/a1", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for category, list := range doc.Entities {
		for _, e := range list {
			if e.Value < 0 || e.Value > 1 {
				t.Errorf("%s/%s: value %g out of [0,1]", category, e.Key, e.Value)
			}
		}
	}
}

func TestRectify_AllBaselineCategoriesPresent(t *testing.T) {
	svc := newTestService(t)

	doc, err := svc.Rectify(map[string][]string{"people": {"John Matthews"}},
		newsText, "https://news.example.com/a1", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, category := range domain.Categories {
		if _, ok := doc.Entities[category]; !ok {
			t.Errorf("missing baseline category %q", category)
		}
	}
}

func TestRectify_Idempotent(t *testing.T) {
	svc := newTestService(t)
	entities := map[string][]string{
		"people": {"John Matthews"},
		"events": {"protest", "election"},
	}

	first, err := svc.Rectify(entities, newsText, "u", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Rectify(entities, newsText, "u", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for category, want := range first.Entities {
		got := second.Entities[category]
		if len(got) != len(want) {
			t.Fatalf("%s: length differs: %v vs %v", category, want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("%s[%d]: %v vs %v", category, i, want[i], got[i])
			}
		}
	}
}

func TestRectify_FilterLaw(t *testing.T) {
	svc := newTestService(t)
	entities := map[string][]string{
		"events": {"protest", "election", "ceremony"},
	}

	unfiltered, err := svc.Rectify(entities, newsText, "u", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	filtered, err := svc.Rectify(entities, newsText, "u", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var want []domain.WeightedEntity
	for _, e := range unfiltered.Entities["events"] {
		if e.Value >= 0.3 {
			want = append(want, e)
		}
	}

	got := filtered.Entities["events"]
	if len(got) != len(want) {
		t.Fatalf("filtered is not the >= threshold subsequence: %v vs %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("filtered[%d]: %v vs %v", i, want[i], got[i])
		}
	}
}

func TestRectify_SortedDescending(t *testing.T) {
	svc := newTestService(t)

	doc, err := svc.Rectify(map[string][]string{
		"events": {"ceremony", "protest", "election"},
	}, newsText, "u", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	list := doc.Entities["events"]
	for i := 1; i < len(list); i++ {
		if list[i].Value > list[i-1].Value {
			t.Fatalf("not sorted descending: %v", list)
		}
	}
}

func TestRectify_AbsentEntityStillScored(t *testing.T) {
	svc := newTestService(t)

	doc, err := svc.Rectify(map[string][]string{
		"people": {"Nobody Mentioned", "John Matthews"},
	}, newsText, "u", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	people := doc.Entities["people"]
	if len(people) != 2 {
		t.Fatalf("expected both entities scored, got %v", people)
	}
	for _, e := range people {
		if e.Value < 0 || e.Value > 1 {
			t.Errorf("%s: value %g out of range", e.Key, e.Value)
		}
	}
}

func TestRectify_SingleEntityFallsBackToFrequency(t *testing.T) {
	svc := newTestService(t)

	// With a single local document every term is pruned by the document
	// frequency cutoff, so scoring degrades to occurrences/max.
	doc, err := svc.Rectify(map[string][]string{
		"people": {"John Matthews"},
	}, newsText, "u", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	people := doc.Entities["people"]
	if len(people) != 1 {
		t.Fatalf("expected one entity, got %v", people)
	}
	// occurs twice; occurrences/max = 1.0
	if people[0].Value != 1.0 {
		t.Fatalf("expected frequency fallback score 1.0, got %g", people[0].Value)
	}
}

func TestRectify_NoOccurrencesDefaultScore(t *testing.T) {
	svc := newTestService(t)

	doc, err := svc.Rectify(map[string][]string{
		"people": {"Nobody Mentioned"},
	}, newsText, "u", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	people := doc.Entities["people"]
	if len(people) != 1 || people[0].Value != defaultFallbackScore {
		t.Fatalf("expected default fallback score %g, got %v", defaultFallbackScore, people)
	}
}

func TestRectify_EmptyCategory(t *testing.T) {
	svc := newTestService(t)

	doc, err := svc.Rectify(map[string][]string{"people": {}}, newsText, "u", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := doc.Entities["people"]; len(got) != 0 {
		t.Fatalf("expected empty category, got %v", got)
	}
}

func TestRectify_EmptySourceText(t *testing.T) {
	svc := newTestService(t)

	doc, err := svc.Rectify(map[string][]string{
		"people": {"John Matthews", "Jane Roe"},
	}, "", "u", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, e := range doc.Entities["people"] {
		if e.Value < 0 || e.Value > 1 {
			t.Errorf("%s: value %g out of range", e.Key, e.Value)
		}
	}
}

func TestBatchRectify_LengthMismatch(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.BatchRectify(
		[]map[string][]string{{"people": {"A"}}},
		[]string{"text one", "text two"},
		[]string{"u1"},
		false,
	)
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestBatchRectify_HappyPath(t *testing.T) {
	svc := newTestService(t)

	docs, err := svc.BatchRectify(
		[]map[string][]string{
			{"people": {"John Matthews"}},
			{"locations": {"Boston"}},
		},
		[]string{newsText, newsText},
		[]string{"u1", "u2"},
		false,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 docs, got %d", len(docs))
	}
	if docs[0].URL != "u1" || docs[1].URL != "u2" {
		t.Fatalf("unexpected urls: %s %s", docs[0].URL, docs[1].URL)
	}
}

// --- local documents ---

func TestLocalDocument_WindowsAroundOccurrences(t *testing.T) {
	count, local := localDocument(newsText, "boston")
	if count != 2 {
		t.Fatalf("expected 2 occurrences, got %d", count)
	}
	if !strings.Contains(local, "boston") {
		t.Fatalf("expected windows around each occurrence, got %q", local)
	}
	if strings.Count(local, "boston") != 2 {
		t.Fatalf("expected one window per occurrence, got %q", local)
	}
}

func TestLocalDocument_CaseFoldingChangesByteLength(t *testing.T) {
	// Ⱥ (U+023A) is 2 bytes; its lowercase ⱥ (U+2C65) is 3. Offsets found
	// in the lowered text must not be used to slice the original.
	text := strings.Repeat("Ⱥ", 100) + " abc abc"

	count, local := localDocument(text, "abc")
	if count != 2 {
		t.Fatalf("expected 2 occurrences, got %d", count)
	}
	if strings.Count(local, "abc") != 2 {
		t.Fatalf("expected both occurrences in the windows, got %q", local)
	}
}

func TestLocalDocument_CaseFoldingShrinksText(t *testing.T) {
	// The Kelvin sign K (U+212A, 3 bytes) lowers to plain k (1 byte), so
	// the lowered text is shorter; windows must stay aligned then too.
	text := strings.Repeat("\u212A", 100) + " harbor protest harbor"

	count, local := localDocument(text, "harbor")
	if count != 2 {
		t.Fatalf("expected 2 occurrences, got %d", count)
	}
	if strings.Count(local, "harbor") != 2 {
		t.Fatalf("expected both occurrences in the windows, got %q", local)
	}
}

func TestRectify_CaseFoldingRunesDoNotPanic(t *testing.T) {
	svc := newTestService(t)

	text := strings.Repeat("Ⱥ", 100) + " John Matthews spoke. John Matthews left."
	doc, err := svc.Rectify(map[string][]string{"people": {"John Matthews"}},
		text, "https://news.example.com/a2", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	people := doc.Entities["people"]
	if len(people) != 1 {
		t.Fatalf("expected 1 weighted entity, got %d", len(people))
	}
	if people[0].Value < 0 || people[0].Value > 1 {
		t.Fatalf("value %g out of [0,1]", people[0].Value)
	}
}

func TestLocalDocument_AbsentEntity(t *testing.T) {
	count, local := localDocument(newsText, "Zanzibar")
	if count != 0 {
		t.Fatalf("expected 0 occurrences, got %d", count)
	}
	if local != "Zanzibar" {
		t.Fatalf("expected local document to degrade to the entity, got %q", local)
	}
}

// --- tokenizer ---

func TestTokenize(t *testing.T) {
	got := tokenize("John Matthews, 42 - a b!")
	want := []string{"john", "matthews", "42"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestNgrams(t *testing.T) {
	got := ngrams([]string{"john", "matthews", "spoke"})
	want := []string{"john", "matthews", "spoke", "john matthews", "matthews spoke"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestFitTFIDF_SingleDocPrunedEmpty(t *testing.T) {
	_, err := fitTFIDF([]string{"john matthews spoke"})
	if !errors.Is(err, errEmptyVocabulary) {
		t.Fatalf("expected errEmptyVocabulary, got %v", err)
	}
}

func TestFitTFIDF_RowsNormalized(t *testing.T) {
	model, err := fitTFIDF([]string{
		"john matthews spoke in boston about the election",
		"the protest near the harbor continued all evening",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, row := range model.rows {
		var norm float64
		for _, w := range row {
			norm += w * w
		}
		if norm > 0 && (norm < 0.999 || norm > 1.001) {
			t.Errorf("row %d: squared norm %g, want 1", i, norm)
		}
	}
}
