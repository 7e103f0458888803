package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"channel-ideator/shared/config"
)

// Response is the text of one completion and the tokens it consumed.
type Response struct {
	Text        string
	TotalTokens int
}

// Generator submits a prompt to a generative-text model.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*Response, error)
}

// GeminiGenerator calls the Gemini API through the genai SDK.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

func NewGeminiGenerator(ctx context.Context, cfg config.AIConfig) (*GeminiGenerator, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiGenerator{
		client: client,
		model:  cfg.Model,
	}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (*Response, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with %s: %w", g.model, err)
	}

	resp := &Response{Text: result.Text()}
	if result.UsageMetadata != nil {
		resp.TotalTokens = int(result.UsageMetadata.TotalTokenCount)
	}
	return resp, nil
}
