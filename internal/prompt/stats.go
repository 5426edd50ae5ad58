package prompt

import "strings"

func CountWords(text string) int {
	return len(strings.Fields(text))
}

// CountSentences counts non-blank runs of text separated by '.', '!' or '?'.
func CountSentences(text string) int {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	n := 0
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			n++
		}
	}
	return n
}
