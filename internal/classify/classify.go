// Package classify derives tags, a summary, and a topic from extracted
// text using the LLM. The model's output is never trusted as-is: a parse
// failure or an unreachable provider yields a deterministic fallback, and
// every field of a successful response is revalidated independently.
package classify

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/umunnaprecious2-prog/brain-box/internal/llm"
)

// maxInputLen caps the text sent to the LLM per call.
const maxInputLen = 3000

// maxTags caps how many tags an item carries.
const maxTags = 5

// maxSummaryLen caps summary length in characters.
const maxSummaryLen = 500

const systemPrompt = `You are a content classification assistant. Given a piece of text, return a JSON object with exactly these fields:
- "tags": a list of 3-5 relevant keyword tags (lowercase strings)
- "summary": a 1-2 sentence summary of the content
- "topic": a single lowercase topic category word (e.g., "finance", "technology", "health", "education", "personal", "work", "general")

Return ONLY valid JSON. No markdown, no extra text.`

// Result holds the validated classification of one item.
type Result struct {
	Tags    []string
	Summary string
	Topic   string
}

// Analyzer classifies content text using an LLM provider.
type Analyzer struct {
	provider  llm.Provider
	maxTokens int
}

// NewAnalyzer creates a new content analyzer. provider may be nil, in
// which case every call returns the deterministic fallback.
func NewAnalyzer(provider llm.Provider, maxTokens int) *Analyzer {
	if maxTokens <= 0 {
		maxTokens = 300
	}
	return &Analyzer{provider: provider, maxTokens: maxTokens}
}

// Analyze classifies text belonging to a content category. It never
// returns an error: AI failures degrade to a deterministic result.
func (a *Analyzer) Analyze(ctx context.Context, text, category string) Result {
	if strings.TrimSpace(text) == "" {
		return Result{
			Tags:    []string{category},
			Summary: "No text content available for analysis.",
			Topic:   "general",
		}
	}

	if a.provider == nil {
		return failedResult(category)
	}

	text = llm.Truncate(text, maxInputLen)
	user := fmt.Sprintf("Content type: %s\n\nText:\n%s", category, text)

	raw, err := a.provider.Generate(ctx, systemPrompt, user, a.maxTokens)
	if err != nil {
		log.Printf("Classification call failed: %v", err)
		return failedResult(category)
	}

	parsed := llm.ParseJSONResponse(raw)
	if parsed == nil {
		log.Println("Classification returned non-JSON response")
		return failedResult(category)
	}

	return validate(parsed, category)
}

// validate normalizes a parsed classification field by field. Applied
// unconditionally to every successful parse.
func validate(parsed map[string]any, category string) Result {
	var tags []string
	for _, tag := range llm.GetStringSlice(parsed, "tags") {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
	}
	if len(tags) == 0 {
		tags = []string{category}
	}
	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}

	summary := strings.TrimSpace(llm.GetString(parsed, "summary", ""))
	if len(summary) > maxSummaryLen {
		summary = strings.TrimSpace(llm.Truncate(summary, maxSummaryLen))
	}
	if summary == "" {
		summary = "No summary generated."
	}

	topic := llm.GetString(parsed, "topic", "")
	topic = strings.ToLower(strings.TrimSpace(topic))
	if topic == "" {
		topic = "general"
	}

	return Result{Tags: tags, Summary: summary, Topic: topic}
}

// failedResult is the degenerate classification used when the AI path
// is unavailable. Distinct from the empty-text result so stored items
// show that analysis was attempted and failed.
func failedResult(category string) Result {
	return Result{
		Tags:    []string{category},
		Summary: "AI analysis failed. Content stored without summary.",
		Topic:   "general",
	}
}

// TagString joins tags the way they are stored on a content item.
func TagString(tags []string) string {
	return strings.Join(tags, ", ")
}
