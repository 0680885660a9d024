package client

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiAdapter implements llm.Generator using the Gemini API.
type GeminiAdapter struct {
	client *genai.Client
	model  string
}

// NewGeminiAdapter creates a new Gemini generator.
func NewGeminiAdapter(ctx context.Context, apiKey, model string) (*GeminiAdapter, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiAdapter{client: client, model: model}, nil
}

func (a *GeminiAdapter) Name() string {
	return "gemini-" + a.model
}

// Generate implements llm.Generator
func (a *GeminiAdapter) Generate(ctx context.Context, systemPrompt, userInput string) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, genai.Text(userInput), config)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("no gemini response")
	}
	return text, nil
}
