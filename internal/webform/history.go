package webform

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"moderated-chat/internal/storage"
)

// HistoryHandler serves the recent exchange audit records as JSON.
// Only registered when the audit store is enabled.
type HistoryHandler struct {
	store storage.Repository
	limit int
}

func NewHistoryHandler(store storage.Repository, limit int) *HistoryHandler {
	if limit <= 0 {
		limit = 50
	}
	return &HistoryHandler{store: store, limit: limit}
}

func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	records, err := h.store.ListRecentExchanges(r.Context(), h.limit)
	if err != nil {
		slog.Error("list exchanges failed", "error", err)
		http.Error(w, "storage unavailable", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []*storage.ExchangeRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(records); err != nil {
		slog.Warn("encode history failed", "error", err)
	}
}
