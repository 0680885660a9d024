package pipeline

import (
	"context"
	"errors"
	"testing"

	"moderated-chat/internal/domain"
	"moderated-chat/internal/storage"
	"moderated-chat/internal/types"
)

type stubModerator struct {
	calls   int
	verdict domain.Verdict
	err     error
}

func (s *stubModerator) ModerateText(ctx context.Context, text string) (domain.Verdict, error) {
	s.calls++
	return s.verdict, s.err
}

type stubGenerator struct {
	calls int
	reply string
	err   error
}

func (s *stubGenerator) Generate(ctx context.Context, systemPrompt, userInput string) (string, error) {
	s.calls++
	return s.reply, s.err
}

func (s *stubGenerator) Name() string { return "stub" }

type stubStore struct {
	records []*storage.ExchangeRecord
}

func (s *stubStore) SaveExchange(ctx context.Context, record *storage.ExchangeRecord) error {
	s.records = append(s.records, record)
	return nil
}

func (s *stubStore) GetExchange(ctx context.Context, id string) (*storage.ExchangeRecord, error) {
	return nil, errors.New("not found")
}

func (s *stubStore) ListRecentExchanges(ctx context.Context, limit int) ([]*storage.ExchangeRecord, error) {
	return s.records, nil
}

func (s *stubStore) Close() error { return nil }

func TestRespond_Unflagged(t *testing.T) {
	mod := &stubModerator{verdict: domain.Verdict{Flagged: false}}
	gen := &stubGenerator{reply: "I'm doing well, thanks!"}
	pipe := New(mod, gen, nil)

	outcome, err := pipe.Respond(context.Background(), "Hello, how are you?")
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if outcome.Rejected {
		t.Error("expected unrejected outcome")
	}
	if outcome.Reply != "I'm doing well, thanks!" {
		t.Errorf("expected verbatim stub reply, got %q", outcome.Reply)
	}
	if mod.calls != 1 {
		t.Errorf("expected 1 moderation call, got %d", mod.calls)
	}
	if gen.calls != 1 {
		t.Errorf("expected 1 generation call, got %d", gen.calls)
	}
}

func TestRespond_Flagged(t *testing.T) {
	mod := &stubModerator{verdict: domain.Verdict{Flagged: true, Categories: []string{"harassment"}}}
	gen := &stubGenerator{reply: "should never be seen"}
	pipe := New(mod, gen, nil)

	outcome, err := pipe.Respond(context.Background(), "some hostile text")
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if !outcome.Rejected {
		t.Fatal("expected rejected outcome")
	}
	if outcome.Notice != RejectionNotice {
		t.Errorf("expected fixed rejection notice, got %q", outcome.Notice)
	}
	if outcome.Reply != "" {
		t.Errorf("a reply must never be produced for flagged input, got %q", outcome.Reply)
	}
	if len(outcome.Categories) != 1 || outcome.Categories[0] != "harassment" {
		t.Errorf("expected classifier categories carried through, got %v", outcome.Categories)
	}
	if gen.calls != 0 {
		t.Errorf("generator must not be invoked for flagged content, got %d calls", gen.calls)
	}
}

func TestRespond_EmptyInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t  "} {
		mod := &stubModerator{}
		gen := &stubGenerator{}
		pipe := New(mod, gen, nil)

		_, err := pipe.Respond(context.Background(), input)
		if !errors.Is(err, types.ErrEmptyInput) {
			t.Errorf("input %q: expected ErrEmptyInput, got %v", input, err)
		}
		if mod.calls != 0 || gen.calls != 0 {
			t.Errorf("input %q: no external capability may be contacted, got mod=%d gen=%d",
				input, mod.calls, gen.calls)
		}
	}
}

func TestRespond_ModerationServiceError(t *testing.T) {
	cause := errors.New("connection refused")
	mod := &stubModerator{err: cause}
	gen := &stubGenerator{}
	pipe := New(mod, gen, nil)

	_, err := pipe.Respond(context.Background(), "Hello")
	if err == nil {
		t.Fatal("expected error")
	}

	var svcErr *types.ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected ServiceError, got %T", err)
	}
	if svcErr.Op != "moderation" {
		t.Errorf("expected moderation op, got %s", svcErr.Op)
	}
	if !errors.Is(err, cause) {
		t.Error("expected underlying error preserved")
	}
	if gen.calls != 0 {
		t.Errorf("generator must not be invoked when moderation fails, got %d calls", gen.calls)
	}
}

func TestRespond_GenerationServiceError(t *testing.T) {
	cause := errors.New("quota exceeded")
	mod := &stubModerator{verdict: domain.Verdict{Flagged: false}}
	gen := &stubGenerator{err: cause}
	pipe := New(mod, gen, nil)

	_, err := pipe.Respond(context.Background(), "Hello")
	if err == nil {
		t.Fatal("expected error")
	}

	var svcErr *types.ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected ServiceError, got %T", err)
	}
	if svcErr.Op != "generation" {
		t.Errorf("expected generation op, got %s", svcErr.Op)
	}
	if !errors.Is(err, cause) {
		t.Error("expected underlying error preserved")
	}
}

func TestRespond_AuditRecords(t *testing.T) {
	store := &stubStore{}
	mod := &stubModerator{verdict: domain.Verdict{Flagged: false}}
	gen := &stubGenerator{reply: "hi there"}
	pipe := New(mod, gen, store)

	if _, err := pipe.Respond(context.Background(), "Hello"); err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if len(store.records) != 1 {
		t.Fatalf("expected 1 audit record, got %d", len(store.records))
	}
	record := store.records[0]
	if record.Status != StatusReplied {
		t.Errorf("expected status replied, got %s", record.Status)
	}
	if record.Input != "Hello" || record.Reply != "hi there" {
		t.Errorf("unexpected record contents: %+v", record)
	}

	// Flagged exchange is audited with its categories
	mod.verdict = domain.Verdict{Flagged: true, Categories: []string{"hate"}}
	if _, err := pipe.Respond(context.Background(), "hostile"); err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if len(store.records) != 2 {
		t.Fatalf("expected 2 audit records, got %d", len(store.records))
	}
	if store.records[1].Status != StatusFlagged || len(store.records[1].Categories) != 1 {
		t.Errorf("unexpected flagged record: %+v", store.records[1])
	}
}

func TestRespond_TrimsInput(t *testing.T) {
	mod := &stubModerator{verdict: domain.Verdict{Flagged: false}}
	gen := &stubGenerator{reply: "ok"}
	store := &stubStore{}
	pipe := New(mod, gen, store)

	if _, err := pipe.Respond(context.Background(), "  Hello  \n"); err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if store.records[0].Input != "Hello" {
		t.Errorf("expected trimmed input in audit record, got %q", store.records[0].Input)
	}
}
