package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // Pure Go driver, CGO-free, compatible with CGO_ENABLED=0
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dsn string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func migrate(db *sql.DB) error {
	schema := `
    CREATE TABLE IF NOT EXISTS exchanges (
        id          TEXT PRIMARY KEY,
        input       TEXT NOT NULL,
        status      TEXT NOT NULL,
        categories  TEXT NOT NULL,
        reply       TEXT NOT NULL,
        error       TEXT NOT NULL,
        created_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
        duration_ms INTEGER
    );
    CREATE INDEX IF NOT EXISTS idx_exchanges_created ON exchanges(created_at);
    CREATE INDEX IF NOT EXISTS idx_exchanges_status ON exchanges(status);
    `
	_, err := db.Exec(schema)
	return err
}

func (r *SQLiteRepository) SaveExchange(ctx context.Context, record *ExchangeRecord) error {
	categories, err := json.Marshal(record.Categories)
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
        INSERT INTO exchanges (id, input, status, categories, reply, error, duration_ms, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `, record.ID, record.Input, record.Status, string(categories),
		record.Reply, record.Error, record.DurationMs, record.CreatedAt)
	return err
}

func (r *SQLiteRepository) GetExchange(ctx context.Context, id string) (*ExchangeRecord, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, input, status, categories, reply, error, created_at, duration_ms
        FROM exchanges WHERE id = ?
    `, id)
	return scanExchange(row)
}

func (r *SQLiteRepository) ListRecentExchanges(ctx context.Context, limit int) ([]*ExchangeRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, input, status, categories, reply, error, created_at, duration_ms
        FROM exchanges
        ORDER BY created_at DESC
        LIMIT ?
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exchanges []*ExchangeRecord
	for rows.Next() {
		record, err := scanExchange(rows)
		if err != nil {
			slog.Warn("scan exchange failed", "error", err)
			continue
		}
		exchanges = append(exchanges, record)
	}
	return exchanges, rows.Err()
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Scanner interface to support both Row and Rows
type Scanner interface {
	Scan(dest ...any) error
}

func scanExchange(s Scanner) (*ExchangeRecord, error) {
	var id, input, status, categoriesData, reply, errMsg string
	var createdAt time.Time
	var durationMs int64

	if err := s.Scan(&id, &input, &status, &categoriesData, &reply, &errMsg, &createdAt, &durationMs); err != nil {
		return nil, err
	}

	var categories []string
	if err := json.Unmarshal([]byte(categoriesData), &categories); err != nil {
		return nil, fmt.Errorf("unmarshal categories: %w", err)
	}

	return &ExchangeRecord{
		ID:         id,
		Input:      input,
		Status:     status,
		Categories: categories,
		Reply:      reply,
		Error:      errMsg,
		CreatedAt:  createdAt,
		DurationMs: durationMs,
	}, nil
}
