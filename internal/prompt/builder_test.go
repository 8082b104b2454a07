package prompt

import (
	"testing"

	"github.com/bz888/scribe/internal/chat"
	"github.com/stretchr/testify/assert"
)

func TestBuildFormalEmail(t *testing.T) {
	system, user := Build("Hi", Options{Tone: "Formal", Style: Default, Format: "Email"}, "")

	assert.Equal(t, chat.Turn{Role: chat.RoleSystem, Content: "Use a formal tone. Write this as a professional email."}, system)
	assert.Equal(t, chat.Turn{Role: chat.RoleUser, Content: "Hi"}, user)
}

func TestBuildDefaults(t *testing.T) {
	for _, opts := range []Options{{}, {Tone: Default, Style: Default, Format: Default}} {
		system, user := Build("Hi", opts, "")
		assert.Equal(t, "Respond helpfully to the user.", system.Content)
		assert.Equal(t, "Hi", user.Content)
	}
}

func TestSystemTurnInstructions(t *testing.T) {
	tests := []struct {
		opts Options
		want string
	}{
		{Options{Style: "Shakespearean"}, "Follow a shakespearean writing style."},
		{Options{Tone: "Casual", Style: "Narrative"}, "Use a casual tone. Follow a narrative writing style."},
		{Options{Format: "LinkedIn Post"}, "Write this as a concise, professional LinkedIn post."},
		{Options{Format: "Tweet / Thread"}, "Write this as a short, attention-grabbing tweet or thread."},
		{Options{Format: "Blog Post"}, "Write this as a detailed, engaging blog post."},
		{Options{Format: "Journal / Diary Entry"}, "Write this as a personal journal or diary entry."},
		{Options{Format: "Story / Fiction"}, "Write this as a creative story or fiction piece."},
		{Options{Format: "Summary / Report"}, "Write this as a clear and concise summary or report."},
		{Options{Format: "Haiku"}, "Format the response as a haiku."},
		{Options{Format: " Email "}, "Write this as a professional email."},
		{Options{Tone: " Formal", Style: "Academic\t", Format: "  "}, "Use a formal tone. Follow a academic writing style."},
		{Options{Tone: " Default "}, "Respond helpfully to the user."},
		{
			Options{Tone: "Humorous", Style: "Technical", Format: "Email"},
			"Use a humorous tone. Follow a technical writing style. Write this as a professional email.",
		},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SystemTurn(tt.opts).Content, "%+v", tt.opts)
	}
}

func TestEveryListedFormatHasAnInstruction(t *testing.T) {
	for _, f := range Formats[1:] {
		assert.NotContains(t, SystemTurn(Options{Format: f}).Content, "Format the response as", f)
	}
}

func TestBuildWithReference(t *testing.T) {
	_, user := Build("Hi", Options{}, "Sample.")

	assert.Contains(t, user.Content, "Hi")
	assert.Contains(t, user.Content, "Sample.")
	assert.Contains(t, user.Content, "sentence length")
	assert.NotEqual(t, "Hi", user.Content)
}

func TestBuildBlankReferenceIgnored(t *testing.T) {
	_, user := Build("Hi", Options{}, "   \n")
	assert.Equal(t, "Hi", user.Content)
}
