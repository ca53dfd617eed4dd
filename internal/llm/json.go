package llm

import (
	"encoding/json"
	"log"
	"strings"
	"unicode/utf8"
)

// ParseJSONResponse parses an LLM response that is expected to be a JSON
// object, stripping markdown code fences if present. Returns nil when the
// text cannot be parsed as a JSON object; callers supply their own
// deterministic fallback in that case.
func ParseJSONResponse(text string) map[string]any {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		endIdx := len(lines) - 1
		for i := len(lines) - 1; i > 0; i-- {
			if strings.TrimSpace(lines[i]) == "```" {
				endIdx = i
				break
			}
		}
		text = strings.Join(lines[1:endIdx], "\n")
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		log.Printf("Failed to parse LLM response as JSON: %v", err)
		return nil
	}

	return result
}

// GetString extracts a string field from a parsed LLM response, returning
// fallback when the field is missing or not a string.
func GetString(m map[string]any, key, fallback string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}

// Truncate caps s at max bytes without splitting a multibyte rune:
// the cut point backs up to the nearest rune boundary, so the result
// is valid UTF-8 whenever the input is.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// GetStringSlice extracts a list-of-strings field from a parsed LLM
// response. Non-string elements are skipped; returns nil when the field
// is missing or not a list.
func GetStringSlice(m map[string]any, key string) []string {
	v, ok := m[key]
	if !ok {
		return nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, e := range arr {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
