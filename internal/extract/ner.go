package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Entities groups the baseline categories every extraction carries.
var baselineCategories = []string{"people", "locations", "dates", "countries", "places", "events"}

var countryIndicators = []string{
	"United States", "United Kingdom", "USA", "UK",
	"America", "Britain", "France", "Germany", "China",
	"Japan", "India", "Russia", "Canada", "Australia",
}

var eventKeywords = []string{
	"summit", "conference", "meeting", "convention",
	"festival", "ceremony", "awards", "championship",
	"tournament", "exhibition", "forum", "symposium",
}

var placeKeywords = []string{
	"airport", "station", "bridge", "stadium", "museum",
	"tower", "square", "hall", "harbor", "park", "palace",
}

var weekdays = map[string]struct{}{
	"monday": {}, "tuesday": {}, "wednesday": {}, "thursday": {},
	"friday": {}, "saturday": {}, "sunday": {},
}

var months = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June, "july": time.July,
	"august": time.August, "september": time.September, "october": time.October,
	"november": time.November, "december": time.December,
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"jun": time.June, "jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

var eventPattern = regexp.MustCompile(
	`([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s+` +
		`(Summit|Conference|Meeting|Convention|Festival|Ceremony|Awards|Championship|Tournament|Exhibition|Forum|Symposium)`,
)

var (
	isoDatePattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	yearPattern      = regexp.MustCompile(`^(1[89]\d{2}|20\d{2})$`)
	longDatePattern  = regexp.MustCompile(`^([A-Za-z]+)\s+(\d{1,2}),\s*(\d{4})$`)
	dayFirstPattern  = regexp.MustCompile(`^(\d{1,2})\s+([A-Za-z]+)\s+(\d{4})$`)
	monthYearPattern = regexp.MustCompile(`^([A-Za-z]+)\s+(\d{4})$`)
)

// NER is a deterministic heuristic entity extractor. It classifies
// capitalized spans into the baseline categories: multi-word spans become
// people, known country names become countries, other mid-sentence
// capitalized words become locations or places, date expressions are
// normalized, and event names are matched by keyword patterns.
type NER struct{}

// NewNER creates the heuristic extractor.
func NewNER() *NER {
	return &NER{}
}

// Extract categorizes entities found in text. Every baseline category is
// present in the result, possibly empty. Within a category entities are
// deduplicated preserving first-seen order.
func (n *NER) Extract(text string) map[string][]string {
	out := make(map[string][]string, len(baselineCategories))
	seen := make(map[string]map[string]struct{}, len(baselineCategories))
	for _, c := range baselineCategories {
		out[c] = []string{}
		seen[c] = map[string]struct{}{}
	}

	add := func(category, entity string) {
		entity = strings.TrimSpace(entity)
		if entity == "" {
			return
		}
		if _, dup := seen[category][entity]; dup {
			return
		}
		seen[category][entity] = struct{}{}
		out[category] = append(out[category], entity)
	}

	for _, span := range capitalizedSpans(text) {
		switch {
		case span.isMonth():
			// bare month names are only meaningful inside date phrases
		case span.isDate():
			if normalized := normalizeDate(span.text); normalized != "" {
				add("dates", normalized)
			}
		case containsKeyword(span.text, eventKeywords):
			add("events", strings.TrimPrefix(span.text, "The "))
		case len(span.words) >= 2:
			add("people", span.text)
		case isLikelyCountry(span.text):
			add("countries", span.text)
		case span.midSentence:
			if containsKeyword(span.text, placeKeywords) {
				add("places", span.text)
			} else {
				add("locations", span.text)
			}
		}
	}

	// Date expressions span lowercase words ("12 March 2021") that the
	// capitalized-span walk does not cover.
	for _, d := range datePhrases(text) {
		add("dates", d)
	}

	for _, e := range eventPhrases(text) {
		add("events", e)
	}

	return out
}

// span is a run of consecutive capitalized words.
type span struct {
	text        string
	words       []string
	midSentence bool
}

func (s span) isMonth() bool {
	if len(s.words) != 1 {
		return false
	}
	_, ok := months[strings.ToLower(s.words[0])]
	return ok
}

func (s span) isDate() bool {
	if len(s.words) != 1 {
		return false
	}
	w := strings.ToLower(s.words[0])
	if _, ok := weekdays[w]; ok {
		return true
	}
	return yearPattern.MatchString(s.words[0])
}

// capitalizedSpans walks the text and groups consecutive capitalized
// words. A single-word span is flagged midSentence when it does not open
// a sentence; sentence openers are too often capitalized for grammar
// alone to be trusted as entities.
func capitalizedSpans(text string) []span {
	var spans []span
	var current []string
	currentMid := false

	sentenceStart := true
	for _, tok := range splitTokens(text) {
		if tok.isWord && isCapitalized(tok.text) {
			if len(current) == 0 {
				currentMid = !sentenceStart
			}
			current = append(current, tok.text)
			sentenceStart = false
			continue
		}

		if len(current) > 0 {
			spans = append(spans, span{
				text:        strings.Join(current, " "),
				words:       current,
				midSentence: currentMid || len(current) >= 2,
			})
			current = nil
		}

		if tok.isWord {
			sentenceStart = false
		} else if strings.ContainsAny(tok.text, ".!?\n") {
			sentenceStart = true
		}
	}
	if len(current) > 0 {
		spans = append(spans, span{
			text:        strings.Join(current, " "),
			words:       current,
			midSentence: currentMid || len(current) >= 2,
		})
	}

	// Single-word sentence openers are dropped unless they look like
	// dates or known countries, which the caller still classifies.
	kept := spans[:0]
	for _, s := range spans {
		if len(s.words) == 1 && !s.midSentence && !s.isDate() && !isLikelyCountry(s.text) {
			continue
		}
		kept = append(kept, s)
	}
	return kept
}

type token struct {
	text   string
	isWord bool
}

func splitTokens(text string) []token {
	var tokens []token
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			tokens = append(tokens, token{text: string(cur), isWord: true})
			cur = cur[:0]
		}
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur = append(cur, r)
			continue
		}
		flush()
		tokens = append(tokens, token{text: string(r)})
	}
	flush()
	return tokens
}

func isCapitalized(word string) bool {
	r := []rune(word)
	return len(r) > 0 && unicode.IsUpper(r[0])
}

// isLikelyCountry matches the word against the known country indicators,
// either direction of containment, case-insensitively.
func isLikelyCountry(text string) bool {
	lower := strings.ToLower(text)
	for _, indicator := range countryIndicators {
		il := strings.ToLower(indicator)
		if strings.Contains(il, lower) || strings.Contains(lower, il) {
			return true
		}
	}
	return false
}

func containsKeyword(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// eventPhrases extracts "<Name> <EventKeyword>" phrases.
func eventPhrases(text string) []string {
	var events []string
	for _, m := range eventPattern.FindAllStringSubmatch(text, -1) {
		name := strings.TrimPrefix(strings.TrimSpace(m[1]), "The ")
		if name == "The" || name == "" {
			events = append(events, m[2])
			continue
		}
		events = append(events, name+" "+m[2])
	}
	return events
}

var datePhrasePattern = regexp.MustCompile(
	`\b(\d{4}-\d{2}-\d{2}|[A-Z][a-z]+ \d{1,2}, \d{4}|\d{1,2} [A-Z][a-z]+ \d{4}|[A-Z][a-z]+ \d{4})\b`,
)

// datePhrases extracts multi-token date expressions from the raw text.
// Month names are validated so phrases like "Boston 2021" do not pass.
func datePhrases(text string) []string {
	var dates []string
	for _, m := range datePhrasePattern.FindAllString(text, -1) {
		if !isoDatePattern.MatchString(m) && !hasKnownMonth(m) {
			continue
		}
		if normalized := normalizeDate(m); normalized != "" {
			dates = append(dates, normalized)
		}
	}
	return dates
}

func hasKnownMonth(s string) bool {
	for _, w := range strings.Fields(s) {
		if _, ok := months[strings.ToLower(strings.Trim(w, ","))]; ok {
			return true
		}
	}
	return false
}

// normalizeDate maps supported date expressions to a canonical form:
// full dates to 2006-01-02, month-year to "January 2006", bare years
// unchanged. Unparseable expressions pass through as-is so relative
// phrases like "today" survive.
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)

	if isoDatePattern.MatchString(s) {
		if _, err := time.Parse("2006-01-02", s); err == nil {
			return s
		}
		return ""
	}
	if yearPattern.MatchString(s) {
		return s
	}
	if m := longDatePattern.FindStringSubmatch(s); m != nil {
		if d, ok := buildDate(m[3], m[1], m[2]); ok {
			return d.Format("2006-01-02")
		}
	}
	if m := dayFirstPattern.FindStringSubmatch(s); m != nil {
		if d, ok := buildDate(m[3], m[2], m[1]); ok {
			return d.Format("2006-01-02")
		}
	}
	if m := monthYearPattern.FindStringSubmatch(s); m != nil {
		if d, ok := buildDate(m[2], m[1], "1"); ok {
			return d.Format("January 2006")
		}
	}

	return s
}

func buildDate(year, monthName, day string) (time.Time, bool) {
	month, ok := months[strings.ToLower(monthName)]
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-1-2", year+"-"+strconv.Itoa(int(month))+"-"+day)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
