package database

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/jo-hoe/conceptcheck/internal/feedback"
)

// CSVStore keeps responses in a single CSV file with a header row.
// Columns new to the file are appended to the header; existing order is kept.
type CSVStore struct {
	path string
	mu   sync.Mutex
}

func NewCSVStore(path string) (*CSVStore, error) {
	if path == "" {
		return nil, &StoreError{Op: "open", Path: path, Err: errors.New("empty path")}
	}
	return &CSVStore{path: path}, nil
}

func (s *CSVStore) Append(ctx context.Context, fields []feedback.Field) error {
	if err := ctx.Err(); err != nil {
		return &StoreError{Op: "append", Path: s.path, Err: err}
	}
	id, err := idOf(fields)
	if err != nil {
		return &StoreError{Op: "append", Path: s.path, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	header, records, err := s.load()
	if err != nil {
		return &StoreError{Op: "read", Path: s.path, Err: err}
	}

	if idx := indexOf(header, feedback.ColumnID); idx >= 0 {
		for _, rec := range records {
			if rec[idx] == id {
				return &StoreError{Op: "append", Path: s.path, Err: fmt.Errorf("duplicate id %s", id)}
			}
		}
	}

	for _, f := range fields {
		if indexOf(header, f.Name) < 0 {
			header = append(header, f.Name)
		}
	}
	for i, rec := range records {
		records[i] = padTo(rec, len(header))
	}

	// the CSV reader drops the CR of CRLF, so rows are written the way they will be read back
	row := make([]string, len(header))
	for _, f := range fields {
		row[indexOf(header, f.Name)] = feedback.NormalizeLineEndings(f.Value)
	}
	records = append(records, row)

	if err := s.write(header, records); err != nil {
		return &StoreError{Op: "write", Path: s.path, Err: err}
	}
	slog.Debug("appended response", "store", s.path, "id", id, "rows", len(records))
	return nil
}

func (s *CSVStore) ReadAll(ctx context.Context) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, &StoreError{Op: "read", Path: s.path, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	header, records, err := s.load()
	if err != nil {
		return nil, &StoreError{Op: "read", Path: s.path, Err: err}
	}

	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		row := make(Row, len(header))
		for i, name := range header {
			row[i] = feedback.Field{Name: name, Value: rec[i]}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *CSVStore) Close() error {
	return nil
}

// load returns the header and data records. A missing or empty file is an empty store.
func (s *CSVStore) load() ([]string, [][]string, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err == io.EOF {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}
	seen := make(map[string]struct{}, len(header))
	for _, name := range header {
		if _, dup := seen[name]; dup {
			return nil, nil, fmt.Errorf("duplicate column %q in header", name)
		}
		seen[name] = struct{}{}
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return header, records, nil
}

// write replaces the file atomically via a temp file in the same directory,
// keeping the permissions of an existing file.
func (s *CSVStore) write(header []string, records [][]string) (err error) {
	mode := fs.FileMode(0o644)
	if info, statErr := os.Stat(s.path); statErr == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	if err = w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err = w.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	if err = tmp.Chmod(mode); err != nil {
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

func padTo(rec []string, n int) []string {
	for len(rec) < n {
		rec = append(rec, "")
	}
	return rec
}
