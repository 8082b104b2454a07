package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bz888/scribe/internal/chat"
	"github.com/bz888/scribe/internal/gateway"
	"github.com/bz888/scribe/internal/logger"
)

const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1024
	DefaultGroqModel   = "llama-3.3-70b-versatile"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint
// (Groq, OpenAI).
type OpenAIClient struct {
	*Client
	model       string
	temperature float64
	maxTokens   int
	log         *logger.Logger
}

// OpenAIConfig configures an OpenAI-compatible text backend.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	// Temperature is sent as given, zero included. Nil means DefaultTemperature.
	Temperature *float64
	MaxTokens   int
	Timeout     time.Duration
}

var groqConfig = ClientConfig{
	Name:     "groq",
	Scheme:   "https",
	Host:     "api.groq.com",
	ChatPath: "/openai/v1/chat/completions",
}

var openAIConfig = ClientConfig{
	Name:     "openai",
	Scheme:   "https",
	Host:     "api.openai.com",
	ChatPath: "/v1/chat/completions",
}

// NewGroqClient creates a client for Groq's OpenAI-compatible API.
func NewGroqClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultGroqModel
	}
	return newOpenAICompatible(groqConfig, cfg, "GROQ_API_KEY")
}

// NewOpenAIClient creates a client for the OpenAI API.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	return newOpenAICompatible(openAIConfig, cfg, "OPENAI_API_KEY")
}

func newOpenAICompatible(base ClientConfig, cfg OpenAIConfig, keyName string) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, gateway.ConfigError(base.Name, keyName+" is not set")
	}

	base.BaseURL = cfg.BaseURL
	base.Timeout = cfg.Timeout
	if cfg.BaseURL != "" {
		base.ChatPath = "/chat/completions"
	}
	c, err := NewClient(base)
	if err != nil {
		return nil, err
	}
	c.headers.Set("Authorization", "Bearer "+cfg.APIKey)

	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	return &OpenAIClient{
		Client:      c,
		model:       cfg.Model,
		temperature: temperatureOrDefault(cfg.Temperature),
		maxTokens:   cfg.MaxTokens,
		log:         logger.NewLogger(base.Name + " client"),
	}, nil
}

type OpenAIChatRequest struct {
	Model       string              `json:"model"`
	Messages    []OpenAIChatMessage `json:"messages"`
	Temperature float64             `json:"temperature"`
	MaxTokens   int                 `json:"max_tokens"`
	Stream      bool                `json:"stream"`
}

type OpenAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type OpenAIChatResponse struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []OpenAIChatChoice `json:"choices"`
	Usage   *OpenAIUsage       `json:"usage,omitempty"`
}

type OpenAIChatChoice struct {
	Message      OpenAIChatMessage `json:"message"`
	FinishReason *string           `json:"finish_reason,omitempty"`
	Index        int               `json:"index"`
}

type OpenAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Complete sends one non-streaming chat completion request and returns the
// first choice's trimmed text.
func (c *OpenAIClient) Complete(ctx context.Context, messages []chat.Turn) (string, error) {
	req := OpenAIChatRequest{
		Model:       c.model,
		Messages:    make([]OpenAIChatMessage, 0, len(messages)),
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Stream:      false,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, OpenAIChatMessage{Role: string(m.Role), Content: m.Content})
	}

	c.log.Info("chat completion: ", len(req.Messages), " messages, model ", c.model)

	resp, err := c.postJSON(ctx, c.GetChatURL(), &req)
	if err != nil {
		return "", err
	}

	if resp.status != http.StatusOK {
		detail := errorDetail(resp.body)
		c.log.Error("Received error response:", detail)
		return "", gateway.BackendError(c.name, resp.status, detail)
	}

	var apiResp OpenAIChatResponse
	if err := json.Unmarshal(resp.body, &apiResp); err != nil {
		return "", gateway.DecodeError(c.name, fmt.Sprintf("decoding chat completion: %v", err), resp.body, err)
	}
	if len(apiResp.Choices) == 0 {
		return "", gateway.DecodeError(c.name, "chat completion has no choices", resp.body, nil)
	}

	return strings.TrimSpace(apiResp.Choices[0].Message.Content), nil
}

func temperatureOrDefault(t *float64) float64 {
	if t == nil {
		return DefaultTemperature
	}
	return *t
}
