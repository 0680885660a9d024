package client

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"moderated-chat/internal/domain"

	"github.com/openai/openai-go"
	"github.com/tidwall/gjson"
)

// OpenAIAdapter implements the llm.Generator and moderation.Moderator
// interfaces using the official OpenAI client.
type OpenAIAdapter struct {
	client          *openai.Client
	model           string
	moderationModel string
	timeout         time.Duration
}

// NewOpenAIAdapter creates a new OpenAI adapter.
// The adapter is safe for concurrent use as long as its configuration is
// not modified after creation.
func NewOpenAIAdapter(client *openai.Client, model, moderationModel string) *OpenAIAdapter {
	return &OpenAIAdapter{
		client:          client,
		model:           model,
		moderationModel: moderationModel,
	}
}

// SetTimeout sets the per-request timeout. Zero leaves the transport default.
func (a *OpenAIAdapter) SetTimeout(d time.Duration) {
	a.timeout = d
}

// Name returns the backend name
func (a *OpenAIAdapter) Name() string {
	return "openai-" + a.model
}

// Ping sends a minimal request to verify connection
func (a *OpenAIAdapter) Ping(ctx context.Context) error {
	slog.Info("checking llm connection...")
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(a.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage("hello"),
		},
		MaxTokens: openai.Int(1),
	}
	_, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return fmt.Errorf("llm ping failed: %w", err)
	}
	slog.Info("llm connection verified")
	return nil
}

// Generate sends a single system+user exchange and returns the reply text verbatim.
func (a *OpenAIAdapter) Generate(ctx context.Context, systemPrompt, userInput string) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(systemPrompt))
	}
	messages = append(messages, openai.UserMessage(userInput))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(a.model),
		Messages: messages,
	}

	resp, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no openai response")
	}

	return resp.Choices[0].Message.Content, nil
}

// ModerateText submits text to the OpenAI moderation classifier and returns
// the verdict together with the flagged category labels.
func (a *OpenAIAdapter) ModerateText(ctx context.Context, text string) (domain.Verdict, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	params := openai.ModerationNewParams{
		Model: openai.ModerationModel(a.moderationModel),
		Input: openai.ModerationNewParamsInputUnion{
			OfString: openai.String(text),
		},
	}

	resp, err := a.client.Moderations.New(ctx, params)
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("openai moderation request: %w", err)
	}

	if len(resp.Results) == 0 {
		return domain.Verdict{}, fmt.Errorf("no moderation result")
	}

	result := resp.Results[0]
	return domain.Verdict{
		Flagged:    result.Flagged,
		Categories: flaggedCategories(result.RawJSON()),
	}, nil
}

// flaggedCategories extracts the labels of categories the classifier set to
// true. The category set varies by classifier model, so the raw JSON is
// walked instead of the generated struct fields.
func flaggedCategories(rawResult string) []string {
	var categories []string
	gjson.Get(rawResult, "categories").ForEach(func(key, value gjson.Result) bool {
		if value.Bool() {
			categories = append(categories, key.String())
		}
		return true
	})
	return categories
}
