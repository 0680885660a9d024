package llm

import "context"

// Generator defines the interface for interacting with a text-generation provider.
type Generator interface {
	// Generate sends a single system+user exchange and returns the reply text.
	// Calls are stateless; no conversation history is carried between them.
	Generate(ctx context.Context, systemPrompt, userInput string) (string, error)
	// Name returns the backend name for logging and metrics.
	Name() string
}
