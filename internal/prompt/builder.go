package prompt

import (
	"fmt"
	"strings"

	"github.com/bz888/scribe/internal/chat"
)

// Default disables an option.
const Default = "Default"

const defaultSystemMessage = "Respond helpfully to the user."

var (
	Tones   = []string{Default, "Formal", "Casual", "Persuasive", "Humorous"}
	Styles  = []string{Default, "Narrative", "Analytical", "Creative", "Technical", "Academic", "Shakespearean"}
	Formats = []string{Default, "Email", "LinkedIn Post", "Tweet / Thread", "Blog Post", "Journal / Diary Entry", "Story / Fiction", "Summary / Report"}
)

// formatInstructions is keyed by the lower-cased format name.
var formatInstructions = map[string]string{
	"email":                 "Write this as a professional email.",
	"linkedin post":         "Write this as a concise, professional LinkedIn post.",
	"tweet / thread":        "Write this as a short, attention-grabbing tweet or thread.",
	"blog post":             "Write this as a detailed, engaging blog post.",
	"journal / diary entry": "Write this as a personal journal or diary entry.",
	"story / fiction":       "Write this as a creative story or fiction piece.",
	"summary / report":      "Write this as a clear and concise summary or report.",
}

const referenceBlock = `Here is a reference text. Study its writing style, tone, vocabulary and sentence length:

"""
%s
"""

Write your response to the request below so that it emulates the style, tone, vocabulary and sentence length of the reference text. Do not copy its content.

Request:
%s`

// Options are the style knobs applied to a text request.
type Options struct {
	Tone   string `json:"tone,omitempty"`
	Style  string `json:"style,omitempty"`
	Format string `json:"format,omitempty"`
}

func isSet(v string) bool {
	return v != "" && v != Default
}

// SystemTurn builds the leading system instruction for opts. Option values
// are trimmed before use.
func SystemTurn(opts Options) chat.Turn {
	opts.Tone = strings.TrimSpace(opts.Tone)
	opts.Style = strings.TrimSpace(opts.Style)
	opts.Format = strings.TrimSpace(opts.Format)

	var instructions []string

	if isSet(opts.Tone) {
		instructions = append(instructions, fmt.Sprintf("Use a %s tone.", strings.ToLower(opts.Tone)))
	}
	if isSet(opts.Style) {
		instructions = append(instructions, fmt.Sprintf("Follow a %s writing style.", strings.ToLower(opts.Style)))
	}
	if isSet(opts.Format) {
		format := strings.ToLower(opts.Format)
		if instruction, ok := formatInstructions[format]; ok {
			instructions = append(instructions, instruction)
		} else {
			instructions = append(instructions, fmt.Sprintf("Format the response as a %s.", format))
		}
	}

	content := defaultSystemMessage
	if len(instructions) > 0 {
		content = strings.Join(instructions, " ")
	}
	return chat.Turn{Role: chat.RoleSystem, Content: content}
}

// Build returns the system and user messages for a text request. When
// reference is non-empty the user input is wrapped in an instruction block
// asking the model to write in the reference's style.
func Build(userInput string, opts Options, reference string) (system chat.Turn, user chat.Turn) {
	system = SystemTurn(opts)

	content := userInput
	if strings.TrimSpace(reference) != "" {
		content = fmt.Sprintf(referenceBlock, reference, userInput)
	}
	return system, chat.Turn{Role: chat.RoleUser, Content: content}
}
