package export

import (
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/bz888/scribe/internal/chat"
	"github.com/orcaman/writerseeker"
)

// Format selects an export layout.
type Format string

const (
	FormatText     Format = "txt"
	FormatMarkdown Format = "md"
)

const timeLayout = "15:04:05"

// ParseFormat accepts "txt"/"text" and "md"/"markdown".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "txt", "text":
		return FormatText, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

func (f Format) Filename() string {
	return "chat_history." + string(f)
}

func (f Format) ContentType() string {
	if f == FormatMarkdown {
		return "text/markdown; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}

// WriteText writes one "[HH:MM:SS] Role: content" line per message.
func WriteText(w io.Writer, messages []chat.Message) error {
	for _, m := range messages {
		if _, err := fmt.Fprintf(w, "[%s] %s: %s\n", m.Timestamp.Format(timeLayout), roleLabel(m.Role), textBody(m)); err != nil {
			return err
		}
	}
	return nil
}

// WriteMarkdown writes a "# Chat History" heading and one bullet per message.
func WriteMarkdown(w io.Writer, messages []chat.Message) error {
	if _, err := io.WriteString(w, "# Chat History\n\n"); err != nil {
		return err
	}
	for _, m := range messages {
		if _, err := fmt.Fprintf(w, "- *%s* **%s**: %s\n", m.Timestamp.Format(timeLayout), roleLabel(m.Role), markdownBody(m)); err != nil {
			return err
		}
	}
	return nil
}

// Write renders messages in the given format.
func Write(w io.Writer, format Format, messages []chat.Message) error {
	switch format {
	case FormatText:
		return WriteText(w, messages)
	case FormatMarkdown:
		return WriteMarkdown(w, messages)
	}
	return fmt.Errorf("unknown export format %q", format)
}

// Render formats messages into memory and returns the document.
func Render(format Format, messages []chat.Message) ([]byte, error) {
	file := &writerseeker.WriterSeeker{}
	if err := Write(file, format, messages); err != nil {
		return nil, fmt.Errorf("rendering %s export: %w", format, err)
	}

	data, err := io.ReadAll(file.Reader())
	if err != nil {
		return nil, fmt.Errorf("reading %s export: %w", format, err)
	}
	return data, nil
}

func roleLabel(r chat.Role) string {
	if r == "" {
		return ""
	}
	s := string(r)
	return strings.ToUpper(s[:1]) + s[1:]
}

func textBody(m chat.Message) string {
	if img, ok := m.Image(); ok {
		return fmt.Sprintf("[image: %d bytes]", len(img))
	}
	return m.Text()
}

func markdownBody(m chat.Message) string {
	if img, ok := m.Image(); ok {
		return "![generated image](data:image/png;base64," + base64.StdEncoding.EncodeToString(img) + ")"
	}
	return m.Text()
}
