package oracle

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ErrAPIKeyRequired is returned when no Anthropic API key is available,
// mirroring internal/compact/haiku.go's errAPIKeyRequired.
var ErrAPIKeyRequired = errors.New("ANTHROPIC_API_KEY required")

// DefaultModel is the model used when none is configured.
const DefaultModel = "claude-haiku-4-5-20251001"

// anthropicCapability wraps anthropic.Client to satisfy Capability.
type anthropicCapability struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewAnthropicCapability builds a Capability backed by the real
// Anthropic API. The environment variable ANTHROPIC_API_KEY takes
// precedence over an explicitly-passed apiKey, matching
// internal/compact/haiku.go's newHaikuClient.
func NewAnthropicCapability(apiKey, model string) (Capability, error) {
	if envKey := os.Getenv("ANTHROPIC_API_KEY"); envKey != "" {
		apiKey = envKey
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: set ANTHROPIC_API_KEY environment variable or provide via config", ErrAPIKeyRequired)
	}
	if model == "" {
		model = DefaultModel
	}

	return &anthropicCapability{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.Model(model),
	}, nil
}

func (a *anthropicCapability) Complete(ctx context.Context, prompt string, maxTokens int64) (string, error) {
	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", err
	}

	if len(message.Content) == 0 {
		return "", fmt.Errorf("unexpected response format: no content blocks")
	}
	content := message.Content[0]
	if content.Type != "text" {
		return "", fmt.Errorf("unexpected response format: not a text block (type=%s)", content.Type)
	}
	return content.Text, nil
}
