package extractor

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var codeFence = regexp.MustCompile("```[A-Za-z0-9_+-]*")

// ParseError means a model response could not be recovered as a JSON array.
type ParseError struct {
	Reason  string
	Snippet string
}

func (e *ParseError) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("parse model response: %s", e.Reason)
	}
	return fmt.Sprintf("parse model response: %s: %q", e.Reason, e.Snippet)
}

// ExtractJSONArray recovers a top-level JSON array from a model response that
// may be wrapped in code fences or prose. Items are returned undecoded.
func ExtractJSONArray(text string) ([]json.RawMessage, error) {
	stripped := strings.TrimSpace(codeFence.ReplaceAllString(text, ""))

	if items, ok := parseArray(stripped); ok {
		return items, nil
	}

	start := strings.IndexByte(stripped, '[')
	end := strings.LastIndexByte(stripped, ']')
	if start >= 0 && end > start {
		if items, ok := parseArray(stripped[start : end+1]); ok {
			return items, nil
		}
		return nil, &ParseError{Reason: "bracketed span is not a valid JSON array", Snippet: truncate(stripped, 200)}
	}

	return nil, &ParseError{Reason: "no JSON array found", Snippet: truncate(stripped, 200)}
}

func parseArray(s string) ([]json.RawMessage, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil, false
	}
	return items, true
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
