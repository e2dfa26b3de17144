// Package anthropic implements the text-generation provider against the
// Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/meditriage/triage-core/internal/domain/providers"
	"github.com/meditriage/triage-core/internal/infrastructure/observability"
	"github.com/meditriage/triage-core/pkg/config"
)

const maxTokens = 1024

// Client implements providers.TextGenerator.
type Client struct {
	client anthropic.Client
	model  string
}

// NewClient creates a new Anthropic client.
func NewClient(cfg *config.AIConfig) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("anthropic api key is required")
	}

	model := cfg.Model
	if model == "" {
		model = string(anthropic.ModelClaudeSonnet4_20250514)
	}

	return &Client{
		client: anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:  model,
	}, nil
}

// ModelID identifies the backing model.
func (c *Client) ModelID() string {
	return "anthropic/" + c.model
}

// Ready reports whether the backend can serve requests.
func (c *Client) Ready(ctx context.Context) error {
	if _, err := c.client.Models.Get(ctx, c.model, anthropic.ModelGetParams{}); err != nil {
		return fmt.Errorf("%w: %v", providers.ErrModelNotReady, err)
	}
	return nil
}

// Generate produces a free-text completion for the given prompts. The system
// prompt is identical across all pipeline stages, so it is marked for prompt
// caching.
func (c *Client) Generate(ctx context.Context, systemPrompt, prompt string, temperature float64) (string, error) {
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(temperature),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt, CacheControl: anthropic.NewCacheControlEphemeralParam()},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}

	observability.LoggerFromContext(ctx).Debug().
		Str("model", c.model).
		Int64("tokens_in", message.Usage.InputTokens).
		Int64("tokens_out", message.Usage.OutputTokens).
		Msg("anthropic completion")

	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", errors.New("no text content in anthropic response")
}
