package webform

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"moderated-chat/internal/config"
	"moderated-chat/internal/domain"
	"moderated-chat/internal/types"

	"github.com/tidwall/gjson"
)

type stubResponder struct {
	calls   int
	outcome *domain.Outcome
	err     error
}

func (s *stubResponder) Respond(ctx context.Context, userText string) (*domain.Outcome, error) {
	s.calls++
	if strings.TrimSpace(userText) == "" {
		return nil, types.ErrEmptyInput
	}
	return s.outcome, s.err
}

func newTestHandler(pipe Responder) *Handler {
	cfg := &config.Config{}
	cfg.Server.MaxBodySize = config.DefaultMaxBodySize
	return NewHandler(cfg, pipe)
}

func TestHandler_GetRendersForm(t *testing.T) {
	h := newTestHandler(&stubResponder{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `name="message"`) {
		t.Error("expected form input field in page")
	}
	if !strings.Contains(body, "<form") {
		t.Error("expected form element in page")
	}
}

func TestHandler_PostRendersReply(t *testing.T) {
	stub := &stubResponder{outcome: &domain.Outcome{Reply: "I'm doing well, thanks!"}}
	h := newTestHandler(stub)

	form := url.Values{"message": {"Hello, how are you?"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "I&#39;m doing well, thanks!") {
		t.Errorf("expected reply in page, got %s", rec.Body.String())
	}
	if stub.calls != 1 {
		t.Errorf("expected 1 pipeline call, got %d", stub.calls)
	}
}

func TestHandler_PostRendersRejectionNotice(t *testing.T) {
	stub := &stubResponder{outcome: &domain.Outcome{
		Rejected:   true,
		Notice:     "this content was flagged and cannot be processed",
		Categories: []string{"harassment"},
	}}
	h := newTestHandler(stub)

	form := url.Values{"message": {"hostile text"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "this content was flagged and cannot be processed") {
		t.Error("expected rejection notice in page")
	}
	if strings.Contains(rec.Body.String(), "Assistant:") {
		t.Error("no reply may be rendered for flagged content")
	}
}

func TestHandler_PostEmptyMessage(t *testing.T) {
	stub := &stubResponder{}
	h := newTestHandler(stub)

	form := url.Values{"message": {"   "}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "please enter a message") {
		t.Error("expected empty-input hint in page")
	}
}

func TestHandler_PostServiceError(t *testing.T) {
	stub := &stubResponder{err: types.NewServiceError("moderation", context.DeadlineExceeded)}
	h := newTestHandler(stub)

	form := url.Values{"message": {"Hello"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "moderation service error") {
		t.Error("expected service error surfaced in page")
	}
}

func TestHandleAPI_Reply(t *testing.T) {
	stub := &stubResponder{outcome: &domain.Outcome{Reply: "I'm doing well, thanks!"}}
	h := newTestHandler(stub)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"Hello, how are you?"}`))
	rec := httptest.NewRecorder()
	h.HandleAPI(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := gjson.Get(rec.Body.String(), "reply").String(); got != "I'm doing well, thanks!" {
		t.Errorf("expected verbatim reply in JSON, got %q", got)
	}
}

func TestHandleAPI_Rejection(t *testing.T) {
	stub := &stubResponder{outcome: &domain.Outcome{
		Rejected:   true,
		Notice:     "this content was flagged and cannot be processed",
		Categories: []string{"hate", "violence"},
	}}
	h := newTestHandler(stub)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"hostile"}`))
	rec := httptest.NewRecorder()
	h.HandleAPI(rec, req)

	body := rec.Body.String()
	if !gjson.Get(body, "rejected").Bool() {
		t.Errorf("expected rejected true, got %s", body)
	}
	if gjson.Get(body, "categories.#").Int() != 2 {
		t.Errorf("expected 2 categories, got %s", body)
	}
	if gjson.Get(body, "reply").Exists() {
		t.Error("no reply may be present in a rejection response")
	}
}

func TestHandleAPI_EmptyMessage(t *testing.T) {
	h := newTestHandler(&stubResponder{})

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.HandleAPI(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleAPI_ServiceError(t *testing.T) {
	stub := &stubResponder{err: types.NewServiceError("generation", context.DeadlineExceeded)}
	h := newTestHandler(stub)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"Hello"}`))
	rec := httptest.NewRecorder()
	h.HandleAPI(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rec.Code)
	}
	if gjson.Get(rec.Body.String(), "error").String() == "" {
		t.Error("expected error message in JSON body")
	}
}

func TestHandleAPI_MethodNotAllowed(t *testing.T) {
	h := newTestHandler(&stubResponder{})

	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	rec := httptest.NewRecorder()
	h.HandleAPI(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}
