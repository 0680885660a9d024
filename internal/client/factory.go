package client

import (
	"context"
	"fmt"

	"moderated-chat/internal/config"
	"moderated-chat/internal/llm"
	"moderated-chat/internal/moderation"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
)

// NewGenerator creates a text-generation backend based on configuration.
// IMPORTANT: The returned Generator is safe for concurrent use from multiple
// goroutines, as long as its configuration (API key, endpoint) is NOT modified
// after creation. This is the standard practice for http.Client based libraries.
func NewGenerator(ctx context.Context, cfg *config.Config) (llm.Generator, error) {
	switch cfg.LLM.Backend {
	case config.BackendLangChain:
		model, err := lcopenai.New(
			lcopenai.WithToken(cfg.LLM.APIKey),
			lcopenai.WithModel(cfg.LLM.Model),
			lcopenai.WithBaseURL(cfg.LLM.Endpoint),
		)
		if err != nil {
			return nil, fmt.Errorf("create langchain model: %w", err)
		}
		return NewLangChainAdapter(model, cfg.LLM.Model)

	case config.BackendGemini:
		return NewGeminiAdapter(ctx, cfg.LLM.GeminiAPIKey, geminiModel(cfg))

	case config.BackendOpenAI, "":
		adapter := newOpenAI(cfg)
		return adapter, nil

	default:
		return nil, fmt.Errorf("unknown llm backend: %s", cfg.LLM.Backend)
	}
}

// NewModerator creates the moderation classifier client. Moderation always
// runs against the OpenAI classifier regardless of the generation backend.
func NewModerator(cfg *config.Config) (moderation.Moderator, error) {
	if cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("moderation requires an OpenAI API key")
	}
	client := openai.NewClient(
		option.WithAPIKey(cfg.LLM.APIKey),
		option.WithBaseURL(cfg.Moderation.Endpoint),
	)
	adapter := NewOpenAIAdapter(&client, cfg.LLM.Model, cfg.Moderation.Model)
	if cfg.LLM.Timeout > 0 {
		adapter.SetTimeout(cfg.LLM.Timeout)
	}
	return adapter, nil
}

func newOpenAI(cfg *config.Config) *OpenAIAdapter {
	client := openai.NewClient(
		option.WithAPIKey(cfg.LLM.APIKey),
		option.WithBaseURL(cfg.LLM.Endpoint),
	)
	adapter := NewOpenAIAdapter(&client, cfg.LLM.Model, cfg.Moderation.Model)
	if cfg.LLM.Timeout > 0 {
		adapter.SetTimeout(cfg.LLM.Timeout)
	}
	return adapter
}

// geminiModel maps the configured model to a Gemini one when the default
// OpenAI model name was left in place.
func geminiModel(cfg *config.Config) string {
	if cfg.LLM.Model == "" || cfg.LLM.Model == config.DefaultLLMModel {
		return config.DefaultGeminiModel
	}
	return cfg.LLM.Model
}
