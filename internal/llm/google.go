package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type GoogleClient struct {
	apiKey string
	model  string
}

func NewGoogleClient(apiKey, model string) *GoogleClient {
	return &GoogleClient{
		apiKey: apiKey,
		model:  model,
	}
}

func (c *GoogleClient) TestConnection(ctx context.Context) error {
	client, err := genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return err
	}
	defer client.Close()

	// List models to verify connection
	iter := client.ListModels(ctx)
	_, err = iter.Next()
	if err != nil && err.Error() != "no more items in iterator" {
		return err
	}

	return nil
}

func (c *GoogleClient) ListModels(ctx context.Context) ([]Model, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return nil, err
	}
	defer client.Close()

	var models []Model
	iter := client.ListModels(ctx)
	for {
		m, err := iter.Next()
		if err != nil {
			if err.Error() == "no more items in iterator" {
				break
			}
			return nil, err
		}

		if m.Name != "" {
			models = append(models, Model{
				ID:          m.Name,
				Name:        m.DisplayName,
				Description: m.Description,
			})
		}
	}

	return models, nil
}

func (c *GoogleClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	// Gemini has no separate system slot in this API surface; prepend it.
	modelName := strings.TrimPrefix(c.model, "models/")
	genModel := client.GenerativeModel(modelName)
	genModel.SetTemperature(req.Temperature)
	if req.MaxTokens > 0 {
		genModel.SetMaxOutputTokens(int32(req.MaxTokens))
	}

	resp, err := genModel.GenerateContent(ctx, genai.Text(req.System+"\n\n"+req.Prompt))
	if err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("no response from google")
	}

	var result string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			result += string(text)
		}
	}

	if result == "" {
		return "", errors.New("empty response from google")
	}

	return result, nil
}
