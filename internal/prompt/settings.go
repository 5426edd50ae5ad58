package prompt

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Tone string

const (
	ToneFormal     Tone = "formal"
	ToneCasual     Tone = "casual"
	ToneFunny      Tone = "funny"
	ToneNormal     Tone = "normal"
	TonePersuasive Tone = "persuasive"
	ToneCreative   Tone = "creative"
)

// Tones lists the tones in the order they are offered to the user.
var Tones = []Tone{ToneFormal, ToneCasual, ToneFunny, ToneNormal, TonePersuasive, ToneCreative}

var toneInstructions = map[Tone]string{
	ToneFormal:     "formal, professional, and suitable for academic or business contexts",
	ToneCasual:     "casual, friendly, and conversational with natural, everyday language",
	ToneFunny:      "humorous and entertaining while maintaining clarity",
	ToneNormal:     "balanced and natural, clear and easy to understand",
	TonePersuasive: "compelling and convincing with strong, confident phrasing",
	ToneCreative:   "creative with vivid descriptions and imaginative language",
}

type Level string

const (
	LevelLight    Level = "light"
	LevelModerate Level = "moderate"
	LevelHeavy    Level = "heavy"
)

var Levels = []Level{LevelLight, LevelModerate, LevelHeavy}

var levelInstructions = map[Level]string{
	LevelLight:    "Make minimal changes, only fix essential grammar, spelling, and punctuation errors",
	LevelModerate: "Fix errors and make moderate improvements to clarity and flow",
	LevelHeavy:    "Completely rewrite and restructure for maximum clarity and impact",
}

// Languages are the supported target languages, keyed by their stored id.
var Languages = []string{
	"english", "hindi", "spanish", "chinese", "japanese", "korean", "russian",
	"arabic", "portuguese", "turkish", "french", "german", "italian",
}

var titleCaser = cases.Title(language.English)

// LanguageName returns the display name for a language id, e.g. "english" -> "English".
func LanguageName(id string) string {
	return titleCaser.String(strings.ToLower(strings.TrimSpace(id)))
}

// Settings are the user-selected options that shape a correction prompt.
type Settings struct {
	Tone               Tone   `json:"tone" yaml:"tone"`
	Language           string `json:"language" yaml:"language"`
	ImprovementLevel   Level  `json:"improvementLevel" yaml:"improvementLevel"`
	TargetWordCount    int    `json:"targetWordCount,omitempty" yaml:"targetWordCount,omitempty"`
	PreserveFormatting bool   `json:"preserveFormatting" yaml:"preserveFormatting"`
	ShowExplanations   bool   `json:"showExplanations" yaml:"showExplanations"`
}

func DefaultSettings() Settings {
	return Settings{
		Tone:               ToneNormal,
		Language:           "english",
		ImprovementLevel:   LevelModerate,
		PreserveFormatting: true,
	}
}

func (s Settings) Validate() error {
	if _, ok := toneInstructions[s.Tone]; !ok {
		return fmt.Errorf("unknown tone %q", s.Tone)
	}
	if _, ok := levelInstructions[s.ImprovementLevel]; !ok {
		return fmt.Errorf("unknown improvement level %q", s.ImprovementLevel)
	}
	if !isLanguage(s.Language) {
		return fmt.Errorf("unknown language %q", s.Language)
	}
	if s.TargetWordCount < 0 {
		return fmt.Errorf("target word count must be positive, got %d", s.TargetWordCount)
	}
	return nil
}

func isLanguage(id string) bool {
	for _, l := range Languages {
		if l == id {
			return true
		}
	}
	return false
}
