// Package llm provides a unified client interface for LLM providers
// (OpenAI, Anthropic, and Google Gemini) and the random analytics-query
// generator built on top of them. It handles API authentication, model
// listing, and single-shot completion requests.
package llm

import (
	"context"
	"errors"
)

// Provider types
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
)

// Model represents an available LLM model. Description is set only when the
// provider's listing supplies one (Anthropic's curated list, Google's API);
// the OpenAI models endpoint exposes no descriptions.
type Model struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CompletionRequest is a single-shot text generation request.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// Client interface for LLM providers
type Client interface {
	TestConnection(ctx context.Context) error
	ListModels(ctx context.Context) ([]Model, error)
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// NewClient factory function
func NewClient(provider, apiKey, model string) (Client, error) {
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey, model), nil
	case ProviderAnthropic:
		return NewAnthropicClient(apiKey, model), nil
	case ProviderGoogle:
		return NewGoogleClient(apiKey, model), nil
	default:
		return nil, errors.New("unsupported provider: " + provider)
	}
}
