package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/newsdex/internal/domain"
)

const improverSystemPrompt = `You are a search query improvement assistant for a news aggregation system.
Your task is to improve vague or unclear search queries by:
1. Extracting key entities (people, locations, dates, countries, places, events)
2. Clarifying ambiguous terms
3. Expanding abbreviations
4. Suggesting better search terms

Return your response in JSON format with:
- improved_query: A clearer version of the query
- entities: A dictionary with entity categories (people, locations, dates, countries, places, events) and their values
- confidence: A score from 0.0 to 1.0 indicating how confident you are in the improvement`

// Improver rewrites vague search queries via an OpenAI-compatible chat API.
// It never fails the caller: any transport or parse failure yields the
// original query with confidence 0.
type Improver struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// ImproverConfig holds the assistant settings.
type ImproverConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// NewImprover creates a query improver.
func NewImprover(cfg *ImproverConfig) *Improver {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Improver{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

// Improve implements domain.QueryImprover. hints, when present, carries
// entities of a similar previous query as extra prompt context.
func (i *Improver) Improve(ctx context.Context, query string, hints map[string][]string) domain.Improvement {
	fallback := domain.Improvement{
		OriginalQuery: query,
		ImprovedQuery: query,
		Entities:      map[string][]string{},
		Confidence:    0,
	}

	resp, err := i.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: i.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: improverSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildImprovePrompt(query, hints)},
		},
		Temperature: 0.3,
		MaxTokens:   500,
	})
	if err != nil {
		i.logger.Warn("query improvement failed", zap.String("query", query), zap.Error(err))
		return fallback
	}
	if len(resp.Choices) == 0 {
		i.logger.Warn("query improvement returned no choices", zap.String("query", query))
		return fallback
	}

	improvement, ok := parseImprovement(resp.Choices[0].Message.Content, query)
	if !ok {
		i.logger.Warn("query improvement response unparseable", zap.String("query", query))
		return fallback
	}
	return improvement
}

func buildImprovePrompt(query string, hints map[string][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Improve the following search query for a news aggregation system:\n\nQuery: %q\n\n", query)

	if formatted := formatHints(hints); formatted != "" {
		fmt.Fprintf(&b, "Context from similar previous queries:\n%s\n\n", formatted)
	}

	b.WriteString(`Extract entities and improve the query. Return JSON format:
{
  "improved_query": "improved version",
  "entities": {
    "people": ["person1", "person2"],
    "locations": ["location1"],
    "dates": ["date1"],
    "countries": ["country1"],
    "places": ["place1"],
    "events": ["event1"]
  },
  "confidence": 0.85
}`)
	return b.String()
}

func formatHints(hints map[string][]string) string {
	categories := make([]string, 0, len(hints))
	for category, values := range hints {
		if len(values) > 0 {
			categories = append(categories, category)
		}
	}
	sort.Strings(categories)

	var lines []string
	for _, category := range categories {
		lines = append(lines, category+": "+strings.Join(hints[category], ", "))
	}
	return strings.Join(lines, "\n")
}

// parseImprovement extracts the JSON object from the model reply, which
// may be wrapped in prose or a code fence.
func parseImprovement(text, originalQuery string) (domain.Improvement, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return domain.Improvement{}, false
	}

	var parsed struct {
		ImprovedQuery string              `json:"improved_query"`
		Entities      map[string][]string `json:"entities"`
		Confidence    float64             `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &parsed); err != nil {
		return domain.Improvement{}, false
	}

	improvement := domain.Improvement{
		OriginalQuery: originalQuery,
		ImprovedQuery: parsed.ImprovedQuery,
		Entities:      parsed.Entities,
		Confidence:    parsed.Confidence,
	}
	if improvement.ImprovedQuery == "" {
		improvement.ImprovedQuery = originalQuery
	}
	if improvement.Entities == nil {
		improvement.Entities = map[string][]string{}
	}
	return improvement, true
}
