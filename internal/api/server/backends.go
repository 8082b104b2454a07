package server

import (
	"context"

	"github.com/bz888/scribe/internal/api/server/client"
	"github.com/bz888/scribe/internal/config"
	"github.com/bz888/scribe/internal/gateway"
)

// NewGateway builds the long-lived backend clients. A backend that cannot be
// configured leaves its capability unavailable; the other still works.
func NewGateway(ctx context.Context, cfg *config.Config) *gateway.Gateway {
	text, textErr := newTextCompleter(ctx, cfg.Text)
	if textErr != nil {
		LocalLogger.Warn("text backend unavailable: ", textErr)
	} else {
		LocalLogger.Info(cfg.Text.Provider, " client initialized.")
	}

	image, imageErr := newImageGenerator(cfg.Image)
	if imageErr != nil {
		LocalLogger.Warn("image backend unavailable: ", imageErr)
	} else {
		LocalLogger.Info("cloudflare client initialized.")
	}

	return gateway.New(
		gateway.WithText(text, textErr),
		gateway.WithImage(image, imageErr),
		gateway.WithImageSize(cfg.Image.Width, cfg.Image.Height),
	)
}

// The nil checks keep a typed nil client out of the interface.
func newTextCompleter(ctx context.Context, cfg config.TextConfig) (gateway.TextCompleter, error) {
	switch cfg.Provider {
	case config.ProviderOllama:
		c, err := client.NewOllamaClient(client.OllamaConfig{
			Model:       cfg.Model,
			BaseURL:     cfg.BaseURL,
			Temperature: &cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.ProviderGemini:
		c, err := client.NewGeminiClient(ctx, client.GeminiConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: &cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.ProviderOpenAI:
		c, err := client.NewOpenAIClient(openAIConfig(cfg))
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		c, err := client.NewGroqClient(openAIConfig(cfg))
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

func openAIConfig(cfg config.TextConfig) client.OpenAIConfig {
	return client.OpenAIConfig{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		BaseURL:     cfg.BaseURL,
		Temperature: &cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
	}
}

func newImageGenerator(cfg config.ImageConfig) (gateway.ImageGenerator, error) {
	c, err := client.NewCloudflareClient(client.CloudflareConfig{
		AccountID: cfg.AccountID,
		APIToken:  cfg.APIToken,
		Model:     cfg.Model,
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}
