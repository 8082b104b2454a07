package templates

import (
	"fmt"
	"strings"
)

// MissingPlaceholderError is returned by Fill when the template references a
// placeholder that has no value.
type MissingPlaceholderError struct {
	Key string
}

func (e *MissingPlaceholderError) Error() string {
	return fmt.Sprintf("missing value for placeholder %q", e.Key)
}

// Fill substitutes every {placeholder} in text with its value. "{{" and "}}"
// produce literal braces. Only placeholders that appear in text need a value.
func Fill(text string, values map[string]string) (string, error) {
	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch {
		case ch == '{' && i+1 < len(text) && text[i+1] == '{':
			b.WriteByte('{')
			i++
		case ch == '}' && i+1 < len(text) && text[i+1] == '}':
			b.WriteByte('}')
			i++
		case ch == '{':
			end := strings.IndexByte(text[i+1:], '}')
			if end < 0 {
				b.WriteString(text[i:])
				return b.String(), nil
			}
			key := text[i+1 : i+1+end]
			value, ok := values[key]
			if !ok {
				return "", &MissingPlaceholderError{Key: key}
			}
			b.WriteString(value)
			i += end + 1
		default:
			b.WriteByte(ch)
		}
	}
	return b.String(), nil
}

// Referenced lists the placeholders that appear in text, in order of first use.
func Referenced(text string) []string {
	var keys []string
	seen := make(map[string]bool)
	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		if i+1 < len(text) && text[i+1] == '{' {
			i++
			continue
		}
		end := strings.IndexByte(text[i+1:], '}')
		if end < 0 {
			break
		}
		key := text[i+1 : i+1+end]
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
		i += end + 1
	}
	return keys
}

// Multiline reports whether a placeholder usually takes several lines of
// input, so forms can offer a text area instead of a single-line field.
func Multiline(placeholder string) bool {
	p := strings.ToLower(placeholder)
	return strings.Contains(p, "description") || strings.Contains(p, "content") || strings.Contains(p, "reference")
}
