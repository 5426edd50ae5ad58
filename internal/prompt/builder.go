// Package prompt builds correction instructions for the completion provider and
// cleans up what comes back.
package prompt

import (
	"strconv"
	"strings"
)

// Mode selects the output format the instruction asks the model for.
type Mode int

const (
	// ModePlain asks for the bare corrected text. This is the canonical mode.
	ModePlain Mode = iota
	// ModeStructured asks for a JSON object with the corrected text and,
	// when explanations are enabled, a short explanation of the changes.
	ModeStructured
)

func (m Mode) String() string {
	switch m {
	case ModePlain:
		return "plain"
	case ModeStructured:
		return "structured"
	default:
		return "unknown"
	}
}

// ModeFor picks the output mode for a set of settings.
func ModeFor(s Settings) Mode {
	if s.ShowExplanations {
		return ModeStructured
	}
	return ModePlain
}

// Build returns the instruction for correcting text under the given settings.
// The result depends only on its arguments.
func Build(text string, s Settings, mode Mode) string {
	var b strings.Builder

	b.WriteString("You are an expert ")
	b.WriteString(LanguageName(s.Language))
	b.WriteString(" grammar corrector.\n\nInstructions:\n")

	b.WriteString("- Make the text ")
	b.WriteString(toneInstructions[s.Tone])
	b.WriteString("\n")

	b.WriteString("- ")
	b.WriteString(levelInstructions[s.ImprovementLevel])
	b.WriteString("\n")

	if s.TargetWordCount > 0 {
		b.WriteString("- Target approximately ")
		b.WriteString(strconv.Itoa(s.TargetWordCount))
		b.WriteString(" words\n")
	}
	if s.PreserveFormatting {
		b.WriteString("- Preserve formatting like line breaks and paragraph structure\n")
	}

	switch mode {
	case ModeStructured:
		b.WriteString("- Respond ONLY with a JSON object in exactly this format, no other text:\n")
		b.WriteString("  {\"corrected_text\": \"your corrected text here\"")
		if s.ShowExplanations {
			b.WriteString(", \"explanation\": \"brief explanation of changes\"")
		}
		b.WriteString("}\n")
		b.WriteString("- NEVER include introductions or extra text outside the JSON\n")
	default:
		b.WriteString("- Return ONLY the corrected text, with no explanations, introductions, quotes, or extra words\n")
		b.WriteString("- NEVER say \"here's the corrected text\" or similar phrases\n")
	}

	b.WriteString("\nText to improve:\n\n")
	b.WriteString(text)

	return b.String()
}
