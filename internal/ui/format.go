package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/bz888/gramfix/internal/prompt"
	"github.com/bz888/gramfix/internal/session"
	"github.com/dustin/go-humanize"
)

const historyPreviewLen = 40

// historyShown is how many entries the history panel lists.
const historyShown = 5

func formatStats(input, output string) string {
	stats := fmt.Sprintf("Input: %d words, %d sentences", prompt.CountWords(input), prompt.CountSentences(input))
	if output != "" {
		stats += fmt.Sprintf(" | Output: %d words, %d sentences", prompt.CountWords(output), prompt.CountSentences(output))
	}
	return stats
}

// keyPrompt returns the title of the key modal to show after a credential
// lookup, or "" when a key is stored.
func keyPrompt(ok bool, err error) string {
	switch {
	case err != nil:
		return "Could not read the saved API key, enter it again"
	case !ok:
		return "Enter your Gemini API key to get started"
	}
	return ""
}

func historyTitle(entry session.HistoryEntry) string {
	text := strings.Join(strings.Fields(entry.Original), " ")
	runes := []rune(text)
	if len(runes) > historyPreviewLen {
		text = string(runes[:historyPreviewLen]) + "..."
	}
	return text
}

func historyDetail(entry session.HistoryEntry, now time.Time) string {
	when := "unknown time"
	if t := entry.Time(); !t.IsZero() {
		when = humanize.RelTime(t, now, "ago", "from now")
	}
	return fmt.Sprintf("%s · %s · %s", when, entry.Settings.Tone, prompt.LanguageName(entry.Settings.Language))
}

func indexOf[T comparable](items []T, v T) int {
	for i, item := range items {
		if item == v {
			return i
		}
	}
	return 0
}

func toStrings[T ~string](items []T) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = string(item)
	}
	return out
}

func languageOptions() []string {
	out := make([]string, len(prompt.Languages))
	for i, id := range prompt.Languages {
		out[i] = prompt.LanguageName(id)
	}
	return out
}
