package ui

import (
	"errors"
	"testing"
	"time"

	"github.com/bz888/gramfix/internal/prompt"
	"github.com/bz888/gramfix/internal/session"
	"github.com/stretchr/testify/assert"
)

func TestFormatStats(t *testing.T) {
	assert.Equal(t, "Input: 3 words, 1 sentences", formatStats("she go home", ""))
	assert.Equal(t,
		"Input: 3 words, 1 sentences | Output: 4 words, 2 sentences",
		formatStats("she go home", "She goes. Home now."))
}

func TestHistoryTitleTruncates(t *testing.T) {
	entry := session.HistoryEntry{Original: "short\ntext"}
	assert.Equal(t, "short text", historyTitle(entry))

	entry.Original = "this sentence is quite a lot longer than forty characters in total"
	assert.Equal(t, "this sentence is quite a lot longer than...", historyTitle(entry))
}

func TestHistoryDetail(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	entry := session.HistoryEntry{
		Timestamp: now.Add(-3 * time.Minute).Format(time.RFC3339Nano),
		Settings:  prompt.Settings{Tone: prompt.ToneFormal, Language: "spanish"},
	}
	assert.Equal(t, "3 minutes ago · formal · Spanish", historyDetail(entry, now))

	entry.Timestamp = "garbage"
	assert.Equal(t, "unknown time · formal · Spanish", historyDetail(entry, now))
}

func TestOptionHelpers(t *testing.T) {
	assert.Equal(t, 2, indexOf(prompt.Levels, prompt.LevelHeavy))
	assert.Equal(t, 0, indexOf(prompt.Levels, prompt.Level("missing")))
	assert.Equal(t, []string{"light", "moderate", "heavy"}, toStrings(prompt.Levels))
	assert.Equal(t, "English", languageOptions()[0])
}

func TestKeyPrompt(t *testing.T) {
	assert.Equal(t, "", keyPrompt(true, nil))
	assert.Equal(t, "Enter your Gemini API key to get started", keyPrompt(false, nil))
	assert.Equal(t, "Could not read the saved API key, enter it again", keyPrompt(false, errors.New("database is locked")))
}
