package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jo-hoe/conceptcheck/internal/feedback"
	_ "modernc.org/sqlite"
)

const createResponsesTable = `CREATE TABLE IF NOT EXISTS responses (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	submitted_at TEXT NOT NULL,
	fields TEXT NOT NULL
)`

// SQLiteStore is an append-only log of responses. Each row keeps its fields as JSON
// so variants with different column sets share one table.
type SQLiteStore struct {
	db               *sql.DB
	connectionString string
	mu               sync.Mutex
}

func NewSQLiteStore(connectionString string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, &StoreError{Op: "open", Path: connectionString, Err: err}
	}
	// a single connection keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createResponsesTable); err != nil {
		_ = db.Close()
		return nil, &StoreError{Op: "open", Path: connectionString, Err: fmt.Errorf("failed to create schema: %w", err)}
	}
	return &SQLiteStore{db: db, connectionString: connectionString}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, fields []feedback.Field) error {
	id, err := idOf(fields)
	if err != nil {
		return s.storeErr("append", err)
	}
	submittedAt := ""
	for _, f := range fields {
		if f.Name == feedback.ColumnSubmittedAt {
			submittedAt = f.Value
		}
	}
	if submittedAt == "" {
		submittedAt = time.Now().UTC().Format(time.RFC3339)
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return s.storeErr("append", fmt.Errorf("failed to encode fields: %w", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.storeErr("append", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO responses (id, submitted_at, fields) VALUES (?, ?, ?)",
		id, submittedAt, string(payload)); err != nil {
		return s.storeErr("append", fmt.Errorf("failed to insert response %s: %w", id, err))
	}
	if err := tx.Commit(); err != nil {
		return s.storeErr("append", err)
	}
	slog.Debug("appended response", "store", "sqlite", "id", id)
	return nil
}

func (s *SQLiteStore) ReadAll(ctx context.Context) ([]Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, "SELECT fields FROM responses ORDER BY seq")
	if err != nil {
		return nil, s.storeErr("read", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []Row
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, s.storeErr("read", err)
		}
		var row Row
		if err := json.Unmarshal([]byte(payload), &row); err != nil {
			return nil, s.storeErr("read", fmt.Errorf("failed to decode stored fields: %w", err))
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, s.storeErr("read", err)
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) storeErr(op string, err error) error {
	return &StoreError{Op: op, Path: s.connectionString, Err: err}
}
