// Package decide produces the publish/no-publish recommendation for a
// classified item. The LLM proposes; validation guarantees the result is
// always one of two known actions, and the deterministic fallback honors
// an explicit user trigger even with the AI entirely unavailable.
package decide

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/umunnaprecious2-prog/brain-box/internal/llm"
)

// The two recommendations the engine can produce.
const (
	RecommendPublish = "publish_to_github"
	RecommendStore   = "store_locally_only"
)

// Confidence levels.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// DecisionName labels every decision this engine records.
const DecisionName = "github_publish_decision"

const systemPrompt = `You are a decision support assistant for a knowledge management system.
Given a decision context, analyze it and return a JSON object with exactly these fields:
- "recommendation": the recommended action (e.g., "publish_to_github", "store_locally_only")
- "rationale": a clear explanation of why this recommendation makes sense (2-3 sentences)
- "confidence": one of "high", "medium", or "low"

Return ONLY valid JSON. No markdown fences, no extra text.`

// Options describe the two available actions, recorded with every decision.
const Options = `1. publish_to_github: Restructure content and push to GitHub repository
2. store_locally_only: Keep content in local storage without publishing`

// Input is the classified context a decision is made from.
type Input struct {
	Category   string
	HasTrigger bool
	Tags       []string
	Summary    string
	Topic      string
}

// Result is a validated decision.
type Result struct {
	Recommendation string
	Rationale      string
	Confidence     string
}

// Engine generates publish decisions using an LLM provider.
type Engine struct {
	provider  llm.Provider
	maxTokens int
}

// NewEngine creates a decision engine. provider may be nil; decisions
// then come from the deterministic fallback.
func NewEngine(provider llm.Provider, maxTokens int) *Engine {
	if maxTokens <= 0 {
		maxTokens = 500
	}
	return &Engine{provider: provider, maxTokens: maxTokens}
}

// ContextText renders the decision context the way it is both sent to
// the LLM and persisted on the decision record.
func ContextText(in Input) string {
	return fmt.Sprintf(
		"Content type: %s\nHas explicit publish trigger (#github or /publish): %t\nTags: %s\nSummary: %s\nTopic: %s",
		in.Category, in.HasTrigger, strings.Join(in.Tags, ", "), in.Summary, in.Topic,
	)
}

// Decide asks the LLM for a recommendation and validates it. The AI is
// always consulted first, even when the trigger is present; trigger-driven
// logic applies only when the AI path fails or returns an unusable shape.
func (e *Engine) Decide(ctx context.Context, in Input) Result {
	if e.provider == nil {
		return Fallback(in.HasTrigger)
	}

	user := ContextText(in) + "\n\nAvailable options:\n" + Options

	raw, err := e.provider.Generate(ctx, systemPrompt, user, e.maxTokens)
	if err != nil {
		log.Printf("Decision call failed: %v", err)
		return Fallback(in.HasTrigger)
	}

	parsed := llm.ParseJSONResponse(raw)
	if parsed == nil {
		log.Println("Decision returned non-JSON response")
		return Fallback(in.HasTrigger)
	}

	return validate(parsed, in.HasTrigger)
}

// validate normalizes a parsed decision. An out-of-enumeration
// recommendation or confidence is replaced consistently with the
// trigger flag; a missing rationale is synthesized from the validated
// recommendation.
func validate(parsed map[string]any, hasTrigger bool) Result {
	recommendation := llm.GetString(parsed, "recommendation", "")
	if recommendation != RecommendPublish && recommendation != RecommendStore {
		if hasTrigger {
			recommendation = RecommendPublish
		} else {
			recommendation = RecommendStore
		}
	}

	rationale := llm.GetString(parsed, "rationale", "")
	if strings.TrimSpace(rationale) == "" {
		rationale = defaultRationale(recommendation, hasTrigger)
	}

	confidence := llm.GetString(parsed, "confidence", "")
	if confidence != ConfidenceHigh && confidence != ConfidenceMedium && confidence != ConfidenceLow {
		if hasTrigger {
			confidence = ConfidenceHigh
		} else {
			confidence = ConfidenceMedium
		}
	}

	return Result{Recommendation: recommendation, Rationale: rationale, Confidence: confidence}
}

// Fallback is the deterministic decision used when the AI path is
// unavailable. The user's explicit trigger is never silently dropped.
func Fallback(hasTrigger bool) Result {
	if hasTrigger {
		return Result{
			Recommendation: RecommendPublish,
			Rationale:      "Explicit publish trigger detected. User requested GitHub publishing.",
			Confidence:     ConfidenceHigh,
		}
	}
	return Result{
		Recommendation: RecommendStore,
		Rationale:      "No publish trigger present. Content stored locally only.",
		Confidence:     ConfidenceHigh,
	}
}

func defaultRationale(recommendation string, hasTrigger bool) string {
	if recommendation == RecommendPublish {
		if hasTrigger {
			return "Explicit publish trigger detected. User requested GitHub publishing."
		}
		return "Content appears suitable for public knowledge sharing via GitHub."
	}
	return "No publish trigger present. Content stored locally only."
}
