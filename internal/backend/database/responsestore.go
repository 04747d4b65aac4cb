package database

import (
	"context"
	"fmt"

	"github.com/jo-hoe/conceptcheck/internal/feedback"
)

// ResponseStore persists flattened feedback records. It is append-only.
type ResponseStore interface {
	Append(ctx context.Context, fields []feedback.Field) error
	ReadAll(ctx context.Context) ([]Row, error)
	Close() error
}

// Row is one stored response in column order.
type Row []feedback.Field

// Get returns the value of the named column.
func (r Row) Get(name string) (string, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// StoreError is returned for every persistence failure: unreadable, corrupt or unwritable
// storage, duplicate ids and cancelled contexts.
type StoreError struct {
	Op   string
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("response store %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func idOf(fields []feedback.Field) (string, error) {
	for _, f := range fields {
		if f.Name == feedback.ColumnID {
			if f.Value == "" {
				return "", fmt.Errorf("column %q is empty", feedback.ColumnID)
			}
			return f.Value, nil
		}
	}
	return "", fmt.Errorf("column %q is missing", feedback.ColumnID)
}
