package storage

import (
	"context"
	"time"
)

// ExchangeRecord Audit record of one pipeline invocation
type ExchangeRecord struct {
	ID         string    `json:"id"`
	Input      string    `json:"input"`
	Status     string    `json:"status"` // replied, flagged, error
	Categories []string  `json:"categories,omitempty"`
	Reply      string    `json:"reply,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	DurationMs int64     `json:"duration_ms"`
}

// Repository Storage interface
type Repository interface {
	SaveExchange(ctx context.Context, record *ExchangeRecord) error
	GetExchange(ctx context.Context, id string) (*ExchangeRecord, error)
	ListRecentExchanges(ctx context.Context, limit int) ([]*ExchangeRecord, error)
	Close() error
}
