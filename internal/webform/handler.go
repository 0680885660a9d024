package webform

import (
	"context"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"unicode/utf8"

	"moderated-chat/internal/config"
	"moderated-chat/internal/domain"
	"moderated-chat/internal/metrics"
	"moderated-chat/internal/types"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"golang.org/x/sync/semaphore"
)

// Responder is the pipeline contract the adapter renders.
type Responder interface {
	Respond(ctx context.Context, userText string) (*domain.Outcome, error)
}

// Handler serves the single-page chat form and its JSON API. Submissions
// are processed one at a time; each request is independent and stateless.
type Handler struct {
	pipe Responder
	cfg  *config.Config
	sem  *semaphore.Weighted
	tmpl *template.Template
}

// NewHandler creates a new web form handler
func NewHandler(cfg *config.Config, pipe Responder) *Handler {
	return &Handler{
		pipe: pipe,
		cfg:  cfg,
		sem:  semaphore.NewWeighted(1),
		tmpl: template.Must(template.New("page").Parse(pageTemplate)),
	}
}

type pageData struct {
	Message    string
	Reply      string
	Notice     string
	Categories []string
	Error      string
}

// ServeHTTP handles the form page: GET renders it, POST submits one message
// and re-renders the same page with the result.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.render(w, http.StatusOK, pageData{})
	case http.MethodPost:
		h.handleSubmit(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Server.MaxBodySize)
	if err := r.ParseForm(); err != nil {
		slog.Warn("parse form failed", "error", err)
		metrics.WebRequests.WithLabelValues("invalid").Inc()
		h.render(w, http.StatusBadRequest, pageData{Error: "could not read the submitted form"})
		return
	}

	message := r.PostFormValue("message")
	outcome, err := h.respond(r.Context(), message)
	if err != nil {
		if errors.Is(err, types.ErrEmptyInput) {
			metrics.WebRequests.WithLabelValues("invalid").Inc()
			h.render(w, http.StatusOK, pageData{Error: "please enter a message"})
			return
		}
		slog.Error("pipeline failed", "error", err)
		metrics.WebRequests.WithLabelValues("error").Inc()
		h.render(w, http.StatusBadGateway, pageData{Message: message, Error: err.Error()})
		return
	}

	metrics.WebRequests.WithLabelValues("accepted").Inc()
	if outcome.Rejected {
		h.render(w, http.StatusOK, pageData{
			Message:    message,
			Notice:     outcome.Notice,
			Categories: outcome.Categories,
		})
		return
	}
	h.render(w, http.StatusOK, pageData{Message: message, Reply: outcome.Reply})
}

// HandleAPI handles POST /api/chat with a JSON body {"message": "..."}.
func (h *Handler) HandleAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Server.MaxBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		slog.Warn("read body failed", "error", err)
		metrics.WebRequests.WithLabelValues("invalid").Inc()
		writeJSONError(w, http.StatusBadRequest, "error reading request body")
		return
	}

	if !utf8.Valid(body) {
		metrics.WebRequests.WithLabelValues("invalid").Inc()
		writeJSONError(w, http.StatusBadRequest, "invalid encoding")
		return
	}

	message := gjson.GetBytes(body, "message").String()
	outcome, err := h.respond(r.Context(), message)
	if err != nil {
		if errors.Is(err, types.ErrEmptyInput) {
			metrics.WebRequests.WithLabelValues("invalid").Inc()
			writeJSONError(w, http.StatusBadRequest, "message is required")
			return
		}
		slog.Error("pipeline failed", "error", err)
		metrics.WebRequests.WithLabelValues("error").Inc()
		writeJSONError(w, http.StatusBadGateway, err.Error())
		return
	}

	metrics.WebRequests.WithLabelValues("accepted").Inc()
	writeJSONOutcome(w, outcome)
}

// respond serializes pipeline calls: one submission is processed at a time.
func (h *Handler) respond(ctx context.Context, text string) (*domain.Outcome, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer h.sem.Release(1)
	return h.pipe.Respond(ctx, text)
}

func (h *Handler) render(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.tmpl.Execute(w, data); err != nil {
		slog.Error("render page failed", "error", err)
	}
}

func writeJSONOutcome(w http.ResponseWriter, outcome *domain.Outcome) {
	var body string
	if outcome.Rejected {
		body, _ = sjson.Set(body, "rejected", true)
		body, _ = sjson.Set(body, "notice", outcome.Notice)
		if len(outcome.Categories) > 0 {
			body, _ = sjson.Set(body, "categories", outcome.Categories)
		}
	} else {
		body, _ = sjson.Set(body, "reply", outcome.Reply)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(body))
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	body, _ := sjson.Set("", "error", message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

const pageTemplate = `<!DOCTYPE html>
<html>
<head><title>Moderated Chat</title></head>
<body>
<h1>Moderated Chat</h1>
<form method="POST" action="/">
  <input type="text" name="message" size="60" value="{{.Message}}">
  <button type="submit">Send</button>
</form>
{{if .Error}}<p><em>Error: {{.Error}}</em></p>{{end}}
{{if .Notice}}<p><em>{{.Notice}}</em></p>{{end}}
{{if .Reply}}<p><strong>Assistant:</strong> {{.Reply}}</p>{{end}}
</body>
</html>
`
