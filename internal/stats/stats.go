package stats

import (
	"strings"
	"unicode/utf8"
)

// Counts summarises a body of text.
type Counts struct {
	Words int `json:"words"`
	Chars int `json:"chars"`
}

// CountWords returns the number of whitespace separated words in text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// CountChars returns the number of characters in text, not counting spaces.
func CountChars(text string) int {
	return utf8.RuneCountInString(strings.ReplaceAll(text, " ", ""))
}

func Count(text string) Counts {
	return Counts{Words: CountWords(text), Chars: CountChars(text)}
}
