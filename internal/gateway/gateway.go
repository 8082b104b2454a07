package gateway

import (
	"context"
	"strings"

	"github.com/bz888/scribe/internal/chat"
	"github.com/bz888/scribe/internal/logger"
)

// WarningPrefix marks assistant turns that report a failure instead of a result.
const WarningPrefix = "⚠️ "

const (
	DefaultImageWidth  = 1024
	DefaultImageHeight = 1024
)

// TextCompleter returns a single non-streaming completion for messages.
type TextCompleter interface {
	Complete(ctx context.Context, messages []chat.Turn) (string, error)
}

// ImageRequest is the body of a text-to-image call. Extra keys are forwarded
// to the backend as-is.
type ImageRequest struct {
	Prompt string
	Width  int
	Height int
	Extra  map[string]any
}

// ImageGenerator returns one or more encoded images for a prompt.
type ImageGenerator interface {
	Generate(ctx context.Context, req ImageRequest) ([][]byte, error)
}

// Gateway is the only component that reaches the network. Either capability
// may be unavailable; its construction error is then reported on use.
type Gateway struct {
	text     TextCompleter
	textErr  error
	image    ImageGenerator
	imageErr error
	width    int
	height   int
	log      *logger.Logger
}

type Option func(*Gateway)

// WithText sets the text backend, or the error that prevented building it.
func WithText(text TextCompleter, err error) Option {
	return func(g *Gateway) {
		g.text, g.textErr = text, err
	}
}

// WithImage sets the image backend, or the error that prevented building it.
func WithImage(image ImageGenerator, err error) Option {
	return func(g *Gateway) {
		g.image, g.imageErr = image, err
	}
}

// WithImageSize sets the size used when a request leaves it unset.
func WithImageSize(width, height int) Option {
	return func(g *Gateway) {
		if width > 0 {
			g.width = width
		}
		if height > 0 {
			g.height = height
		}
	}
}

func New(opts ...Option) *Gateway {
	g := &Gateway{
		width:  DefaultImageWidth,
		height: DefaultImageHeight,
		log:    logger.NewLogger("gateway"),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.text == nil && g.textErr == nil {
		g.textErr = ConfigError("text", "no text backend configured")
	}
	if g.image == nil && g.imageErr == nil {
		g.imageErr = ConfigError("image", "no image backend configured")
	}
	return g
}

// CompleteText never fails: any error is returned as a visible warning string
// so the conversation can continue.
func (g *Gateway) CompleteText(ctx context.Context, messages []chat.Turn) string {
	if g.textErr != nil {
		g.log.Warn("text completion unavailable: ", g.textErr)
		return WarningPrefix + "Error: " + g.textErr.Error()
	}

	reply, err := g.text.Complete(ctx, messages)
	if err != nil {
		g.log.Error("text completion failed: ", err)
		return WarningPrefix + "Error: " + err.Error()
	}
	return strings.TrimSpace(reply)
}

// GenerateImage returns the decoded image buffers in backend order.
func (g *Gateway) GenerateImage(ctx context.Context, prompt string, width, height int) ([][]byte, error) {
	if g.imageErr != nil {
		return nil, g.imageErr
	}
	if width <= 0 {
		width = g.width
	}
	if height <= 0 {
		height = g.height
	}

	images, err := g.image.Generate(ctx, ImageRequest{Prompt: prompt, Width: width, Height: height})
	if err != nil {
		g.log.Error("image generation failed: ", err)
		return nil, err
	}
	g.log.Info("generated ", len(images), " image(s)")
	return images, nil
}

// TextAvailable reports whether a text backend was configured successfully.
func (g *Gateway) TextAvailable() bool {
	return g.textErr == nil
}

// ImageAvailable reports whether an image backend was configured successfully.
func (g *Gateway) ImageAvailable() bool {
	return g.imageErr == nil
}
