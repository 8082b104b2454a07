package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bz888/scribe/internal/api/server/handlers"
	"github.com/bz888/scribe/internal/chat"
	"github.com/rivo/tview"
)

// formatMessage renders a message for the conversation view. Image bytes are
// described; saving them is up to the caller.
func formatMessage(m handlers.Message) string {
	var b strings.Builder

	ts := m.Timestamp.Format("15:04:05")
	if m.Role == chat.RoleUser {
		fmt.Fprintf(&b, "[red::]You[-] [gray]#%d %s[-]", m.Index, ts)
	} else {
		fmt.Fprintf(&b, "[green::]Bot[-] [gray]#%d %s[-]", m.Index, ts)
	}
	if m.Kind == chat.KindImage && m.Role == chat.RoleUser {
		b.WriteString(" [blue](image prompt)[-]")
	}
	b.WriteString("\n")

	if len(m.Image) > 0 {
		fmt.Fprintf(&b, "[blue][image: %d bytes][-]\n\n", len(m.Image))
		return b.String()
	}
	b.WriteString(tview.Escape(m.Text))
	b.WriteString("\n\n")
	return b.String()
}

// saveImage writes an image reply next to the working directory as
// generated_<index>.png and returns the path.
func saveImage(dir string, m handlers.Message) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("generated_%d.png", m.Index))
	if err := os.WriteFile(path, m.Image, 0o644); err != nil {
		return "", fmt.Errorf("saving image: %w", err)
	}
	return path, nil
}
