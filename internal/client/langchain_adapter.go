package client

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
)

// LangChainAdapter implements llm.Generator using LangChainGo
type LangChainAdapter struct {
	model llms.Model
	name  string
}

// NewLangChainAdapter creates a new LangChainGo-based generator around an
// already constructed model.
func NewLangChainAdapter(model llms.Model, name string) (*LangChainAdapter, error) {
	if model == nil {
		return nil, fmt.Errorf("model is nil")
	}
	return &LangChainAdapter{model: model, name: name}, nil
}

func (a *LangChainAdapter) Name() string {
	return "langchain-" + a.name
}

// Generate implements llm.Generator
func (a *LangChainAdapter) Generate(ctx context.Context, systemPrompt, userInput string) (string, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userInput),
	}

	resp, err := a.model.GenerateContent(ctx, content)
	if err != nil {
		return "", fmt.Errorf("langchain request: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no langchain response")
	}

	return resp.Choices[0].Content, nil
}
