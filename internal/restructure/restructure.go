// Package restructure reshapes classified content into a publishable
// markdown document plus a suggested remote path, filename, and commit
// message. Sanitization of the suggested values is unconditional, whether
// they came from the LLM or from the deterministic fallback.
package restructure

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/umunnaprecious2-prog/brain-box/internal/llm"
)

const maxInputLen = 3000

const (
	maxSubfolderLen = 50
	maxFilenameLen  = 60
	maxCommitMsgLen = 120
)

const systemPrompt = `You are a content restructuring assistant for a GitHub-based knowledge archive.
Given a piece of content and its metadata, return a JSON object with exactly these fields:
- "markdown": the content restructured as clean, readable Markdown. Include a title heading, the summary, tags as badges, and the original content formatted clearly.
- "suggested_subfolder": a short lowercase folder name for organizing by topic (e.g., "finance", "technology", "recipes"). Use only alphanumeric and hyphens.
- "suggested_filename": a short, descriptive filename ending in .md (e.g., "investment-basics.md"). Use only lowercase, hyphens, and alphanumeric.
- "commit_message": a concise commit message describing what is being added (e.g., "Add notes on investment basics").

Return ONLY valid JSON. No markdown fences, no extra text.`

var (
	subfolderUnsafe = regexp.MustCompile(`[^a-z0-9-]`)
	filenameUnsafe  = regexp.MustCompile(`[^a-z0-9.\-]`)
)

// Input carries the content and classification being restructured.
type Input struct {
	Text         string
	Category     string
	OriginalName string
	Tags         []string
	Summary      string
	Topic        string
}

// Result is a sanitized restructuring, ready for the publisher.
type Result struct {
	Markdown      string
	Subfolder     string
	Filename      string // always ends in .md
	CommitMessage string
}

// Restructurer converts content into archive documents using an LLM.
type Restructurer struct {
	provider  llm.Provider
	maxTokens int
}

// NewRestructurer creates a restructurer. provider may be nil; the
// deterministic default document is produced in that case.
func NewRestructurer(provider llm.Provider, maxTokens int) *Restructurer {
	if maxTokens <= 0 {
		maxTokens = 1500
	}
	return &Restructurer{provider: provider, maxTokens: maxTokens}
}

// Restructure produces a publishable document for the given input.
// Never returns an error: AI failures yield the default document.
func (r *Restructurer) Restructure(ctx context.Context, in Input) Result {
	if strings.TrimSpace(in.Text) == "" || r.provider == nil {
		return fallback(in)
	}

	text := llm.Truncate(in.Text, maxInputLen)
	user := fmt.Sprintf(
		"Content type: %s\nOriginal name: %s\nTags: %s\nSummary: %s\nTopic: %s\n\nContent:\n%s",
		in.Category, in.OriginalName, strings.Join(in.Tags, ", "), in.Summary, in.Topic, text,
	)

	raw, err := r.provider.Generate(ctx, systemPrompt, user, r.maxTokens)
	if err != nil {
		log.Printf("Restructuring call failed: %v", err)
		return fallback(in)
	}

	parsed := llm.ParseJSONResponse(raw)
	if parsed == nil {
		log.Println("Restructuring returned non-JSON response")
		return fallback(in)
	}

	return validate(parsed, in)
}

// validate sanitizes a parsed restructuring field by field.
func validate(parsed map[string]any, in Input) Result {
	markdown := llm.GetString(parsed, "markdown", "")
	if strings.TrimSpace(markdown) == "" {
		markdown = defaultMarkdown(in.OriginalName, in.Tags, in.Summary)
	}

	subfolder := SanitizeSubfolder(llm.GetString(parsed, "suggested_subfolder", ""))

	filename := llm.GetString(parsed, "suggested_filename", "")
	if strings.TrimSpace(filename) == "" {
		filename = defaultFilename(in.OriginalName)
	}
	filename = SanitizeFilename(filename)

	commitMsg := SanitizeCommitMessage(llm.GetString(parsed, "commit_message", ""), in.Category, in.OriginalName)

	return Result{
		Markdown:      markdown,
		Subfolder:     subfolder,
		Filename:      filename,
		CommitMessage: commitMsg,
	}
}

// fallback is the deterministic document produced without the AI.
func fallback(in Input) Result {
	subfolder := SanitizeSubfolder(in.Topic)
	return Result{
		Markdown:      defaultMarkdown(in.OriginalName, in.Tags, in.Summary),
		Subfolder:     subfolder,
		Filename:      SanitizeFilename(defaultFilename(in.OriginalName)),
		CommitMessage: SanitizeCommitMessage("", in.Category, in.OriginalName),
	}
}

// SanitizeSubfolder lower-cases, replaces characters outside [a-z0-9-]
// with hyphens, and caps length. Empty input yields "general".
// Idempotent: applying it to its own output is a no-op.
func SanitizeSubfolder(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = subfolderUnsafe.ReplaceAllString(s, "-")
	if len(s) > maxSubfolderLen {
		s = s[:maxSubfolderLen]
	}
	if strings.Trim(s, "-") == "" {
		return "general"
	}
	return s
}

// SanitizeFilename lower-cases, replaces characters outside [a-z0-9.-]
// with hyphens, caps length, and forces a .md extension. Idempotent.
func SanitizeFilename(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = filenameUnsafe.ReplaceAllString(s, "-")
	if strings.Trim(s, ".-") == "" {
		s = "content"
	}
	if !strings.HasSuffix(s, ".md") {
		if idx := strings.LastIndex(s, "."); idx > 0 {
			s = s[:idx]
		}
		s += ".md"
	}
	// Truncate the stem, not the extension, so the cap holds.
	if len(s) > maxFilenameLen {
		s = strings.TrimRight(s[:maxFilenameLen-3], ".") + ".md"
	}
	return s
}

// SanitizeCommitMessage caps length and synthesizes a default from the
// category and name when empty. The cut lands on a rune boundary and is
// re-trimmed, so the result is valid UTF-8 and the function idempotent.
func SanitizeCommitMessage(s, category, originalName string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		s = fmt.Sprintf("Add %s: %s", category, originalName)
	}
	if len(s) > maxCommitMsgLen {
		s = strings.TrimSpace(llm.Truncate(s, maxCommitMsgLen))
	}
	return s
}

func defaultFilename(originalName string) string {
	safe := strings.ToLower(originalName)
	safe = subfolderUnsafe.ReplaceAllString(safe, "-")
	if len(safe) > 40 {
		safe = safe[:40]
	}
	if strings.Trim(safe, "-") == "" {
		safe = "content"
	}
	return safe + ".md"
}

func defaultMarkdown(originalName string, tags []string, summary string) string {
	var tagLine string
	if len(tags) > 0 {
		quoted := make([]string, len(tags))
		for i, t := range tags {
			quoted[i] = "`" + t + "`"
		}
		tagLine = strings.Join(quoted, " ")
	}
	return fmt.Sprintf("# %s\n\n**Summary:** %s\n\n**Tags:** %s\n", originalName, summary, tagLine)
}
