package handlers

import (
	"time"

	"github.com/bz888/scribe/internal/chat"
	"github.com/bz888/scribe/internal/prompt"
	"github.com/bz888/scribe/internal/templates"
)

// Message is the wire form of a stored turn. Image bytes are base64 encoded
// by encoding/json.
type Message struct {
	Index     int       `json:"index"`
	ID        string    `json:"id"`
	Role      chat.Role `json:"role"`
	Kind      chat.Kind `json:"kind"`
	Text      string    `json:"text,omitempty"`
	Image     []byte    `json:"image,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func toMessage(index int, m chat.Message) Message {
	out := Message{
		Index:     index,
		ID:        m.ID,
		Role:      m.Role,
		Kind:      m.Kind,
		Timestamp: m.Timestamp,
	}
	if img, ok := m.Image(); ok {
		out.Image = img
	} else {
		out.Text = m.Text()
	}
	return out
}

type SessionResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

type MessagesResponse struct {
	Messages []Message `json:"messages"`
}

type ChatRequest struct {
	Text      string `json:"text"`
	Tone      string `json:"tone,omitempty"`
	Style     string `json:"style,omitempty"`
	Format    string `json:"format,omitempty"`
	Reference string `json:"reference,omitempty"`
}

func (r ChatRequest) Options() prompt.Options {
	return prompt.Options{Tone: r.Tone, Style: r.Style, Format: r.Format}
}

type ImageRequest struct {
	Prompt string `json:"prompt"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// ReworkRequest carries the options for regenerate/expand/shorten. The body
// is optional.
type ReworkRequest struct {
	Tone   string `json:"tone,omitempty"`
	Style  string `json:"style,omitempty"`
	Format string `json:"format,omitempty"`
}

type TemplateRequest struct {
	Category string            `json:"category"`
	Name     string            `json:"name"`
	Values   map[string]string `json:"values"`
	Tone     string            `json:"tone,omitempty"`
	Style    string            `json:"style,omitempty"`
	Format   string            `json:"format,omitempty"`
}

type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

type CategoryResponse struct {
	Name      string               `json:"name"`
	Templates []templates.Template `json:"templates"`
}

type OptionsResponse struct {
	Tones   []string `json:"tones"`
	Styles  []string `json:"styles"`
	Formats []string `json:"formats"`
}

type StatsResponse struct {
	Messages int `json:"messages"`
	Words    int `json:"words"`
	Chars    int `json:"chars"`
}

type StatusResponse struct {
	ServerWorking  bool `json:"server_working"`
	TextAvailable  bool `json:"text_available"`
	ImageAvailable bool `json:"image_available"`
	Sessions       int  `json:"sessions"`
}

type ErrorResponse struct {
	Error   string   `json:"error"`
	Missing []string `json:"missing,omitempty"`
}
