package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bz888/scribe/internal/chat"
	"github.com/bz888/scribe/internal/gateway"
	"github.com/bz888/scribe/internal/logger"
	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiClient completes chats with the Gemini API.
type GeminiClient struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
	log         *logger.Logger
}

type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature *float64
	MaxTokens   int
}

func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, gateway.ConfigError("gemini", "GEMINI_API_KEY is not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, gateway.ConfigError("gemini", fmt.Sprintf("creating client: %v", err))
	}

	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	return &GeminiClient{
		client:      client,
		model:       cfg.Model,
		temperature: float32(temperatureOrDefault(cfg.Temperature)),
		maxTokens:   int32(cfg.MaxTokens),
		log:         logger.NewLogger("gemini client"),
	}, nil
}

// Complete maps system turns to the system instruction and the rest to
// user/model contents.
func (g *GeminiClient) Complete(ctx context.Context, messages []chat.Turn) (string, error) {
	system, contents := geminiContents(messages)

	temp := g.temperature
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: g.maxTokens,
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	res, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		g.log.Error("generate content failed: ", err)
		return "", geminiError(err)
	}

	text := res.Text()
	if text == "" {
		return "", gateway.DecodeError("gemini", "response has no text", nil, nil)
	}
	return strings.TrimSpace(text), nil
}

// geminiError keeps the status and message of API replies. Anything else
// never reached the backend.
func geminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return gateway.BackendError("gemini", apiErr.Code, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return gateway.BackendError("gemini", apiErrPtr.Code, apiErrPtr.Message)
	}
	return gateway.NetworkError("gemini", err)
}

func geminiContents(messages []chat.Turn) (string, []*genai.Content) {
	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case chat.RoleSystem:
			system = append(system, m.Content)
		case chat.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return strings.Join(system, "\n"), contents
}
