package ui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bz888/scribe/internal/api/server/handlers"
	"github.com/bz888/scribe/internal/chat"
	"github.com/bz888/scribe/internal/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input string
		want  command
	}{
		{"hello there", command{arg: "hello there"}},
		{"  /help  ", command{name: "/help"}},
		{"/image a red fox", command{name: "/image", arg: "a red fox"}},
		{"/QUIT", command{name: "/bye"}},
		{"/exit", command{name: "/bye"}},
		{"/regenerate 3", command{name: "/regen", arg: "3"}},
		{"/templates", command{name: "/template"}},
		{"/ref some  reference text", command{name: "/ref", arg: "some  reference text"}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseCommand(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parseCommand("/dance")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/dance")
}

func TestEveryCommandHasHelp(t *testing.T) {
	assert.Len(t, commandOrder, len(commands))
	for _, name := range commandOrder {
		_, ok := commands[name]
		assert.True(t, ok, name)
	}
	for alias, target := range aliases {
		_, ok := commands[target]
		assert.True(t, ok, alias)
	}
}

func TestParseIndex(t *testing.T) {
	n, err := parseIndex("4")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = parseIndex(" #2 ")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, bad := range []string{"", "two", "-1"} {
		_, err := parseIndex(bad)
		assert.Error(t, err, bad)
	}
}

func TestMatchOption(t *testing.T) {
	v, ok := matchOption("formal", prompt.Tones)
	assert.True(t, ok)
	assert.Equal(t, "Formal", v)

	v, ok = matchOption("linkedin post", prompt.Formats)
	assert.True(t, ok)
	assert.Equal(t, "LinkedIn Post", v)

	_, ok = matchOption("grumpy", prompt.Tones)
	assert.False(t, ok)
}

func TestPlaceholderLabel(t *testing.T) {
	assert.Equal(t, "Target Audience", placeholderLabel("target_audience"))
	assert.Equal(t, "Topic", placeholderLabel("topic"))
	assert.Equal(t, "Previous Post Reference", placeholderLabel("previous_post_reference"))
}

func TestFormatMessage(t *testing.T) {
	ts := time.Date(2025, 1, 2, 9, 5, 7, 0, time.UTC)

	user := formatMessage(handlers.Message{Index: 0, Role: chat.RoleUser, Kind: chat.KindText, Text: "hi [there]", Timestamp: ts})
	assert.True(t, strings.HasPrefix(user, "[red::]You[-] [gray]#0 09:05:07[-]\n"))
	assert.Contains(t, user, "hi [there[]")
	assert.True(t, strings.HasSuffix(user, "\n\n"))

	prompted := formatMessage(handlers.Message{Index: 1, Role: chat.RoleUser, Kind: chat.KindImage, Text: "a fox", Timestamp: ts})
	assert.Contains(t, prompted, "(image prompt)")

	img := formatMessage(handlers.Message{Index: 2, Role: chat.RoleAssistant, Kind: chat.KindImage, Image: []byte{1, 2, 3}, Timestamp: ts})
	assert.Contains(t, img, "[green::]Bot[-] [gray]#2")
	assert.Contains(t, img, "[image: 3 bytes]")
}

func TestSaveImage(t *testing.T) {
	dir := t.TempDir()

	path, err := saveImage(dir, handlers.Message{Index: 5, Image: []byte{0x89, 'P', 'N', 'G'}})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "generated_5.png"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)

	_, err = saveImage(filepath.Join(dir, "missing"), handlers.Message{Index: 1, Image: []byte{1}})
	assert.Error(t, err)
}

func TestResetConversationKeepsNotice(t *testing.T) {
	u := New(nil, false)
	u.notice("old reply")

	u.resetConversation()

	text := u.textView.GetText(true)
	assert.NotContains(t, text, "old reply")
	assert.Equal(t, "Conversation cleared.", strings.TrimSpace(text))
}
