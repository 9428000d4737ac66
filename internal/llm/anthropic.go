package llm

import (
	"context"
	"errors"

	"github.com/liushuangls/go-anthropic/v2"
)

type AnthropicClient struct {
	client *anthropic.Client
	model  string
}

func NewAnthropicClient(apiKey, model string) *AnthropicClient {
	return &AnthropicClient{
		client: anthropic.NewClient(apiKey),
		model:  model,
	}
}

func (c *AnthropicClient) TestConnection(ctx context.Context) error {
	// No cheap ping endpoint; send a minimal message instead.
	_, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		MaxTokens: 10,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage("test"),
		},
	})
	return err
}

// ListModels returns known Anthropic models.
// NOTE: Anthropic does not provide a model listing API endpoint.
// This list must be manually updated when new models are released.
// See: https://docs.anthropic.com/en/docs/models-overview
func (c *AnthropicClient) ListModels(ctx context.Context) ([]Model, error) {
	return []Model{
		{
			ID:          "claude-sonnet-4-5",
			Name:        "Claude Sonnet 4.5",
			Description: "Balanced performance and cost",
		},
		{
			ID:          "claude-3-5-haiku-20241022",
			Name:        "Claude 3.5 Haiku",
			Description: "Fast and cost-effective",
		},
	}, nil
}

func (c *AnthropicClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	temp := req.Temperature
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(c.model),
		MaxTokens:   req.MaxTokens,
		System:      req.System,
		Temperature: &temp,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(req.Prompt),
		},
	})
	if err != nil {
		return "", err
	}

	// Extract the first text block from the response
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			return *block.Text, nil
		}
	}

	return "", errors.New("no text in anthropic response")
}
