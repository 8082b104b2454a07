package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bz888/scribe/internal/chat"
	"github.com/bz888/scribe/internal/export"
	"github.com/bz888/scribe/internal/gateway"
	"github.com/bz888/scribe/internal/logger"
	"github.com/bz888/scribe/internal/prompt"
	"github.com/bz888/scribe/internal/stats"
	"github.com/bz888/scribe/internal/templates"
)

var (
	ErrEmptyInput      = errors.New("input is empty")
	ErrUnknownTemplate = errors.New("unknown template")
)

// IncompleteTemplateError lists declared placeholders that still have no value.
type IncompleteTemplateError struct {
	Missing []string
}

func (e *IncompleteTemplateError) Error() string {
	return "fill in all template fields: " + strings.Join(e.Missing, ", ")
}

// Generator is the part of the gateway the controller needs.
type Generator interface {
	CompleteText(ctx context.Context, messages []chat.Turn) string
	GenerateImage(ctx context.Context, prompt string, width, height int) ([][]byte, error)
}

// Rework is an in-place edit applied to an assistant reply.
type Rework string

const (
	Regenerate Rework = "Regenerate"
	Expand     Rework = "Expand"
	Shorten    Rework = "Shorten"
)

// ParseRework maps an action name such as "regen" or "expand" to a Rework.
func ParseRework(action string) (Rework, error) {
	switch strings.ToLower(action) {
	case "regenerate", "regen":
		return Regenerate, nil
	case "expand":
		return Expand, nil
	case "shorten":
		return Shorten, nil
	}
	return "", fmt.Errorf("unknown action %q", action)
}

type SendInput struct {
	Text      string
	Options   prompt.Options
	Reference string
}

type TemplateInput struct {
	Category string
	Name     string
	Values   map[string]string
	Options  prompt.Options
}

type ImageInput struct {
	Prompt string
	Width  int
	Height int
}

// Controller turns user actions into store updates and gateway calls. It holds
// no conversation state; every action receives the store it works on.
type Controller struct {
	gen     Generator
	catalog *templates.Catalog
	log     *logger.Logger
}

func NewController(gen Generator, catalog *templates.Catalog) *Controller {
	return &Controller{
		gen:     gen,
		catalog: catalog,
		log:     logger.NewLogger("session"),
	}
}

// Send appends the user's text and the assistant's reply. The request is the
// system turn, prior text history, then the built user turn in place of the
// raw input just appended.
func (c *Controller) Send(ctx context.Context, store *chat.Store, in SendInput) (chat.Message, error) {
	if strings.TrimSpace(in.Text) == "" {
		return chat.Message{}, ErrEmptyInput
	}

	system, user := prompt.Build(in.Text, in.Options, in.Reference)
	store.Append(chat.RoleUser, chat.Text(in.Text), chat.KindText)

	history := store.APIReady(chat.KindText)
	messages := make([]chat.Turn, 0, len(history)+1)
	messages = append(messages, system)
	messages = append(messages, history[:len(history)-1]...)
	messages = append(messages, user)

	reply := c.gen.CompleteText(ctx, messages)
	return store.Append(chat.RoleAssistant, chat.Text(reply), chat.KindText), nil
}

// SendImage appends the prompt and one assistant turn per generated image.
// Failures are recorded as a warning turn instead of returned.
func (c *Controller) SendImage(ctx context.Context, store *chat.Store, in ImageInput) ([]chat.Message, error) {
	if strings.TrimSpace(in.Prompt) == "" {
		return nil, ErrEmptyInput
	}

	store.Append(chat.RoleUser, chat.Text(in.Prompt), chat.KindImage)

	images, err := c.gen.GenerateImage(ctx, in.Prompt, in.Width, in.Height)
	if err != nil {
		c.log.Warn("image generation error: ", err)
		msg := store.Append(chat.RoleAssistant, chat.Text(gateway.WarningPrefix+"Image generation error: "+err.Error()), chat.KindImage)
		return []chat.Message{msg}, nil
	}
	if len(images) == 0 {
		msg := store.Append(chat.RoleAssistant, chat.Text(gateway.WarningPrefix+"Failed to generate image."), chat.KindImage)
		return []chat.Message{msg}, nil
	}

	out := make([]chat.Message, 0, len(images))
	for _, img := range images {
		out = append(out, store.Append(chat.RoleAssistant, chat.Image(img), chat.KindImage))
	}
	return out, nil
}

// Rework asks for a new version of the assistant reply at index and replaces
// its content in place. Other messages are untouched.
func (c *Controller) Rework(ctx context.Context, store *chat.Store, index int, action Rework, opts prompt.Options) (chat.Message, error) {
	target, err := store.Get(index)
	if err != nil {
		return chat.Message{}, err
	}
	if target.Role != chat.RoleAssistant || target.Kind != chat.KindText {
		return chat.Message{}, fmt.Errorf("message %d: %w", index, chat.ErrNotReplaceable)
	}
	if _, ok := target.Content.(chat.Text); !ok {
		return chat.Message{}, fmt.Errorf("message %d: %w", index, chat.ErrNotReplaceable)
	}

	history := store.APIReady(chat.KindText)
	messages := make([]chat.Turn, 0, len(history)+2)
	messages = append(messages, prompt.SystemTurn(opts))
	messages = append(messages, history...)
	messages = append(messages, chat.Turn{Role: chat.RoleUser, Content: fmt.Sprintf("%s: %s", action, target.Text())})

	reply := c.gen.CompleteText(ctx, messages)
	if err := store.ReplaceContent(index, chat.Text(reply)); err != nil {
		return chat.Message{}, err
	}
	return store.Get(index)
}

func (c *Controller) Regenerate(ctx context.Context, store *chat.Store, index int, opts prompt.Options) (chat.Message, error) {
	return c.Rework(ctx, store, index, Regenerate, opts)
}

func (c *Controller) Expand(ctx context.Context, store *chat.Store, index int, opts prompt.Options) (chat.Message, error) {
	return c.Rework(ctx, store, index, Expand, opts)
}

func (c *Controller) Shorten(ctx context.Context, store *chat.Store, index int, opts prompt.Options) (chat.Message, error) {
	return c.Rework(ctx, store, index, Shorten, opts)
}

// GenerateFromTemplate fills the template and sends the result like typed
// input. Every declared placeholder must have a value. The
// previous_post_reference value, when present, is used as reference text.
func (c *Controller) GenerateFromTemplate(ctx context.Context, store *chat.Store, in TemplateInput) (chat.Message, error) {
	tmpl, ok := c.catalog.Lookup(in.Category, in.Name)
	if !ok {
		return chat.Message{}, fmt.Errorf("%w: %s / %s", ErrUnknownTemplate, in.Category, in.Name)
	}
	if missing := tmpl.Missing(in.Values); len(missing) > 0 {
		return chat.Message{}, &IncompleteTemplateError{Missing: missing}
	}

	filled, err := templates.Fill(tmpl.Text, in.Values)
	if err != nil {
		return chat.Message{}, err
	}
	c.log.Info("generating from template ", tmpl.Category, " / ", tmpl.Name)

	return c.Send(ctx, store, SendInput{
		Text:      filled,
		Options:   in.Options,
		Reference: in.Values[templates.ReferencePlaceholder],
	})
}

func (c *Controller) Clear(store *chat.Store) {
	store.Clear()
}

// Export renders the conversation as a TXT or Markdown document.
func (c *Controller) Export(store *chat.Store, format export.Format) ([]byte, error) {
	return export.Render(format, store.List())
}

// WordCount counts words and characters across assistant text replies.
func (c *Controller) WordCount(store *chat.Store) stats.Counts {
	var parts []string
	for _, m := range store.List() {
		if m.Role != chat.RoleAssistant || m.Kind != chat.KindText {
			continue
		}
		if t, ok := m.Content.(chat.Text); ok {
			parts = append(parts, string(t))
		}
	}
	return stats.Count(strings.Join(parts, " "))
}

// Catalog returns the template catalog the controller was built with.
func (c *Controller) Catalog() *templates.Catalog {
	return c.catalog
}
