package ui

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// command is one parsed slash command. Plain text parses to a command with
// an empty name.
type command struct {
	name string
	arg  string
}

type commandSpec struct {
	usage string
	help  string
}

// commandOrder drives /help output.
var commandOrder = []string{
	"/help", "/bye", "/debug", "/image", "/regen", "/expand", "/shorten",
	"/tone", "/style", "/format", "/ref", "/template", "/clear", "/export", "/count",
}

var commands = map[string]commandSpec{
	"/help":     {"/help", "Display this help message"},
	"/bye":      {"/bye", "Exit the application (/quit and /exit work too)"},
	"/debug":    {"/debug", "Toggle the debug console"},
	"/image":    {"/image <prompt>", "Generate an image from a prompt"},
	"/regen":    {"/regen <n>", "Regenerate reply #n"},
	"/expand":   {"/expand <n>", "Expand reply #n"},
	"/shorten":  {"/shorten <n>", "Shorten reply #n"},
	"/tone":     {"/tone [value]", "Show or set the tone"},
	"/style":    {"/style [value]", "Show or set the writing style"},
	"/format":   {"/format [value]", "Show or set the output format"},
	"/ref":      {"/ref [text]", "Set reference text for the next message (empty clears it)"},
	"/template": {"/template", "Fill in a prompt template"},
	"/clear":    {"/clear", "Clear the conversation"},
	"/export":   {"/export [txt|md]", "Save the conversation to chat_history.txt or .md"},
	"/count":    {"/count", "Count words and characters in replies"},
}

var aliases = map[string]string{
	"/quit":       "/bye",
	"/exit":       "/bye",
	"/regenerate": "/regen",
	"/templates":  "/template",
}

func parseCommand(input string) (command, error) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return command{arg: input}, nil
	}

	name, arg, _ := strings.Cut(input, " ")
	name = strings.ToLower(name)
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}
	if _, ok := commands[name]; !ok {
		return command{}, fmt.Errorf("unknown command %s, try /help", name)
	}
	return command{name: name, arg: strings.TrimSpace(arg)}, nil
}

func parseIndex(arg string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(arg), "#"))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("expected a message number, got %q", arg)
	}
	return n, nil
}

// matchOption finds value in options ignoring case, so "/tone formal" picks
// "Formal".
func matchOption(value string, options []string) (string, bool) {
	for _, o := range options {
		if strings.EqualFold(o, value) {
			return o, true
		}
	}
	return "", false
}

// placeholderLabel turns "target_audience" into "Target Audience".
func placeholderLabel(p string) string {
	words := strings.Fields(strings.ReplaceAll(p, "_", " "))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
