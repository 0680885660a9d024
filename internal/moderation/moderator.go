package moderation

import (
	"context"

	"moderated-chat/internal/domain"
)

// Moderator defines the interface for content moderation services.
type Moderator interface {
	// ModerateText checks whether text violates the provider's content policy
	// and returns the classifier's verdict.
	ModerateText(ctx context.Context, text string) (domain.Verdict, error)
}
