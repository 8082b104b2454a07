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

const DefaultOllamaModel = "llama3.2"

// OllamaClient represents a client for a local Ollama server
type OllamaClient struct {
	*Client
	model   string
	options OllamaOptions
	log     *logger.Logger
}

type OllamaConfig struct {
	Model       string
	BaseURL     string
	Temperature *float64
	MaxTokens   int
	Timeout     time.Duration
}

var ollamaConfig = ClientConfig{
	Name:     "ollama",
	Scheme:   "http",
	Host:     "localhost:11434",
	ChatPath: "/api/chat",
}

// NewOllamaClient creates a new Ollama API client. No credentials are needed.
func NewOllamaClient(cfg OllamaConfig) (*OllamaClient, error) {
	base := ollamaConfig
	base.BaseURL = cfg.BaseURL
	base.Timeout = cfg.Timeout

	c, err := NewClient(base)
	if err != nil {
		return nil, err
	}

	if cfg.Model == "" {
		cfg.Model = DefaultOllamaModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	return &OllamaClient{
		Client: c,
		model:  cfg.Model,
		options: OllamaOptions{
			Temperature: temperatureOrDefault(cfg.Temperature),
			NumPredict:  cfg.MaxTokens,
		},
		log: logger.NewLogger("ollama client"),
	}, nil
}

type OllamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []OllamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  OllamaOptions   `json:"options"`
}

type OllamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type OllamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type OllamaMessageResponse struct {
	Model              string        `json:"model"`
	CreatedAt          string        `json:"created_at"`
	Message            OllamaMessage `json:"message"`
	Done               bool          `json:"done"`
	TotalDuration      int64         `json:"total_duration"`
	LoadDuration       int64         `json:"load_duration"`
	PromptEvalCount    int           `json:"prompt_eval_count"`
	PromptEvalDuration int64         `json:"prompt_eval_duration"`
	EvalCount          int           `json:"eval_count"`
	EvalDuration       int64         `json:"eval_duration"`
}

// Complete asks Ollama for a single non-streaming chat reply.
func (c *OllamaClient) Complete(ctx context.Context, messages []chat.Turn) (string, error) {
	req := OllamaChatRequest{
		Model:    c.model,
		Messages: make([]OllamaMessage, 0, len(messages)),
		Stream:   false,
		Options:  c.options,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, OllamaMessage{Role: string(m.Role), Content: m.Content})
	}

	resp, err := c.postJSON(ctx, c.GetChatURL(), &req)
	if err != nil {
		c.log.Error("Failed to request on ollama chat:", err)
		return "", err
	}

	if resp.status != http.StatusOK {
		return "", gateway.BackendError(c.name, resp.status, errorDetail(resp.body))
	}

	var msg OllamaMessageResponse
	if err := json.Unmarshal(resp.body, &msg); err != nil {
		return "", gateway.DecodeError(c.name, fmt.Sprintf("decoding chat reply: %v", err), resp.body, err)
	}
	if !msg.Done && msg.Message.Content == "" {
		return "", gateway.DecodeError(c.name, "chat reply has no message", resp.body, nil)
	}

	c.log.Info("eval count: ", msg.EvalCount)
	return strings.TrimSpace(msg.Message.Content), nil
}
