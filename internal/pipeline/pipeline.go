package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"moderated-chat/internal/domain"
	"moderated-chat/internal/llm"
	"moderated-chat/internal/metrics"
	"moderated-chat/internal/moderation"
	"moderated-chat/internal/storage"
	"moderated-chat/internal/types"
)

const (
	// SystemPrompt is the fixed instruction sent with every generation call.
	SystemPrompt = "You are a helpful assistant."

	// RejectionNotice is the fixed human-readable notice returned for flagged content.
	RejectionNotice = "this content was flagged and cannot be processed"
)

// Exchange statuses used in metrics and audit records
const (
	StatusReplied = "replied"
	StatusFlagged = "flagged"
	StatusError   = "error"
)

// ModerationGatedChat runs the moderation-gated request pipeline: check the
// input against the moderation classifier, then either reject it or forward
// it to the generation backend. Each invocation is stateless and independent.
type ModerationGatedChat struct {
	moderator    moderation.Moderator
	generator    llm.Generator
	store        storage.Repository // nil disables auditing
	auditTimeout time.Duration
}

// New creates the pipeline. store may be nil to disable the audit trail.
func New(moderator moderation.Moderator, generator llm.Generator, store storage.Repository) *ModerationGatedChat {
	return &ModerationGatedChat{
		moderator:    moderator,
		generator:    generator,
		store:        store,
		auditTimeout: 5 * time.Second,
	}
}

// SetAuditTimeout sets the timeout for audit writes.
func (p *ModerationGatedChat) SetAuditTimeout(d time.Duration) {
	if d > 0 {
		p.auditTimeout = d
	}
}

// Respond runs one pipeline invocation. It returns either an Outcome (a reply
// or a rejection) or an error: types.ErrEmptyInput for blank input, a
// *types.ServiceError when an external capability fails. A rejection is a
// normal outcome, not an error. No retry is attempted on failure.
func (p *ModerationGatedChat) Respond(ctx context.Context, userText string) (*domain.Outcome, error) {
	trimmed := strings.TrimSpace(userText)
	if trimmed == "" {
		metrics.ExchangesTotal.WithLabelValues("empty").Inc()
		return nil, types.ErrEmptyInput
	}

	start := time.Now()
	metricResult := StatusError
	defer func() {
		metrics.ExchangeDuration.WithLabelValues(metricResult).Observe(time.Since(start).Seconds())
	}()

	verdict, err := p.moderator.ModerateText(ctx, trimmed)
	if err != nil {
		metrics.ModerationChecks.WithLabelValues("error").Inc()
		metrics.ExchangesTotal.WithLabelValues(StatusError).Inc()
		wrapped := types.NewServiceError("moderation", err)
		p.audit(start, trimmed, StatusError, nil, "", wrapped.Error())
		return nil, wrapped
	}

	if verdict.Flagged {
		metrics.ModerationChecks.WithLabelValues("flagged").Inc()
		metrics.ExchangesTotal.WithLabelValues(StatusFlagged).Inc()
		metricResult = "success"
		slog.Info("content flagged", "categories", verdict.Categories)
		p.audit(start, trimmed, StatusFlagged, verdict.Categories, "", "")
		return &domain.Outcome{
			Rejected:   true,
			Notice:     RejectionNotice,
			Categories: verdict.Categories,
		}, nil
	}
	metrics.ModerationChecks.WithLabelValues("unflagged").Inc()

	reply, err := p.generator.Generate(ctx, SystemPrompt, trimmed)
	if err != nil {
		metrics.GenerationRequests.WithLabelValues(p.generator.Name(), "error").Inc()
		metrics.ExchangesTotal.WithLabelValues(StatusError).Inc()
		wrapped := types.NewServiceError("generation", err)
		p.audit(start, trimmed, StatusError, nil, "", wrapped.Error())
		return nil, wrapped
	}
	metrics.GenerationRequests.WithLabelValues(p.generator.Name(), "success").Inc()
	metrics.ExchangesTotal.WithLabelValues(StatusReplied).Inc()
	metricResult = "success"

	p.audit(start, trimmed, StatusReplied, nil, reply, "")
	return &domain.Outcome{Reply: reply}, nil
}

// audit persists one exchange record. Storage failures are logged and
// swallowed: the outcome is already decided when the audit write happens.
func (p *ModerationGatedChat) audit(start time.Time, input, status string, categories []string, reply, errMsg string) {
	if p.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.auditTimeout)
	defer cancel()

	record := &storage.ExchangeRecord{
		ID:         fmt.Sprintf("%s-%d", status, time.Now().UnixNano()),
		Input:      input,
		Status:     status,
		Categories: categories,
		Reply:      reply,
		Error:      errMsg,
		CreatedAt:  time.Now().UTC(),
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err := p.store.SaveExchange(ctx, record); err != nil {
		slog.Warn("save exchange failed", "error", err, "id", record.ID)
	}
}
