package prompt

import (
	"encoding/json"
	"strings"
)

var boilerplatePrefixes = []string{
	"Here's the corrected text:",
	"Here is the corrected text:",
	"Corrected text:",
	"Fixed text:",
}

// Normalize strips boilerplate lead-ins and wrapping quotes that models tend to
// add around a correction. It is applied until nothing changes, so
// Normalize(Normalize(s)) == Normalize(s) for every s.
func Normalize(raw string) string {
	s := raw
	for {
		next := normalizeOnce(s)
		if next == s {
			return s
		}
		s = next
	}
}

func normalizeOnce(s string) string {
	s = strings.TrimSpace(s)
	for _, p := range boilerplatePrefixes {
		if hasPrefixFold(s, p) {
			s = strings.TrimSpace(s[len(p):])
			break
		}
	}
	if len(s) > 0 && isQuote(s[0]) {
		s = s[1:]
	}
	if len(s) > 0 && isQuote(s[len(s)-1]) {
		s = s[:len(s)-1]
	}
	return strings.TrimSpace(s)
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func isQuote(c byte) bool {
	return c == '"' || c == '\''
}

// Structured is the reply shape requested by ModeStructured.
type Structured struct {
	CorrectedText string `json:"corrected_text"`
	Explanation   string `json:"explanation,omitempty"`
}

// ParseStructured decodes a ModeStructured reply. Markdown code fences and text
// around the JSON object are tolerated. ok is false when no object with a
// non-empty corrected_text can be found.
func ParseStructured(raw string) (Structured, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return Structured{}, false
	}

	var out Structured
	if err := json.Unmarshal([]byte(s[start:end+1]), &out); err != nil {
		return Structured{}, false
	}
	if strings.TrimSpace(out.CorrectedText) == "" {
		return Structured{}, false
	}
	out.CorrectedText = strings.TrimSpace(out.CorrectedText)
	out.Explanation = strings.TrimSpace(out.Explanation)
	return out, true
}
