package database

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jo-hoe/conceptcheck/internal/feedback"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldsFor(id, like string) []feedback.Field {
	return []feedback.Field{
		{Name: feedback.ColumnID, Value: id},
		{Name: feedback.ColumnLike, Value: like},
		{Name: feedback.ColumnRating, Value: "7"},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestCSVStore_CreatesFileWithHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "responses.csv")
	store, err := NewCSVStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Append(context.Background(), fieldsFor("a", "colors")))

	records := readCSV(t, path)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"id", "like", "rating"}, records[0])
	assert.Equal(t, []string{"a", "colors", "7"}, records[1])
}

func TestCSVStore_AppendThenReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "responses.csv")
	store, err := NewCSVStore(path)
	require.NoError(t, err)
	ctx := context.Background()

	const n = 5
	for i := 0; i < n; i++ {
		require.NoError(t, store.Append(ctx, fieldsFor(fmt.Sprintf("id-%d", i), fmt.Sprintf("like, \"quoted\" %d", i))))
	}

	rows, err := store.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, n)
	for i, row := range rows {
		id, _ := row.Get(feedback.ColumnID)
		like, _ := row.Get(feedback.ColumnLike)
		assert.Equal(t, fmt.Sprintf("id-%d", i), id)
		assert.Equal(t, fmt.Sprintf("like, \"quoted\" %d", i), like)
	}
}

func TestCSVStore_MissingFileIsEmpty(t *testing.T) {
	store, err := NewCSVStore(filepath.Join(t.TempDir(), "none.csv"))
	require.NoError(t, err)

	rows, err := store.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCSVStore_PreservesExistingColumnOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "responses.csv")
	existing := "rating,id,legacy\n3,old,x\n"
	require.NoError(t, os.WriteFile(path, []byte(existing), 0o644))

	store, err := NewCSVStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(context.Background(), fieldsFor("new", "shapes")))

	records := readCSV(t, path)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"rating", "id", "legacy", "like"}, records[0])
	assert.Equal(t, []string{"3", "old", "x", ""}, records[1])
	assert.Equal(t, []string{"7", "new", "", "shapes"}, records[2])
}

func TestCSVStore_RejectsDuplicateID(t *testing.T) {
	store, err := NewCSVStore(filepath.Join(t.TempDir(), "responses.csv"))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, fieldsFor("same", "a")))
	err = store.Append(ctx, fieldsFor("same", "b"))

	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "append", storeErr.Op)

	rows, err := store.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestCSVStore_RequiresID(t *testing.T) {
	store, err := NewCSVStore(filepath.Join(t.TempDir(), "responses.csv"))
	require.NoError(t, err)

	err = store.Append(context.Background(), []feedback.Field{{Name: "like", Value: "x"}})
	var storeErr *StoreError
	assert.ErrorAs(t, err, &storeErr)
}

func TestCSVStore_Failures(t *testing.T) {
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "corrupt.csv")
	require.NoError(t, os.WriteFile(corrupt, []byte("id,like\n\"unterminated,1\n"), 0o644))
	ragged := filepath.Join(dir, "ragged.csv")
	require.NoError(t, os.WriteFile(ragged, []byte("id,like\na,b,c\n"), 0o644))
	dupHeader := filepath.Join(dir, "dup.csv")
	require.NoError(t, os.WriteFile(dupHeader, []byte("id,id\na,b\n"), 0o644))

	tests := []struct {
		name string
		path string
	}{
		{"corrupt quoting", corrupt},
		{"ragged rows", ragged},
		{"duplicate header", dupHeader},
		{"directory as path", dir},
		{"missing parent directory", filepath.Join(dir, "nope", "responses.csv")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewCSVStore(tt.path)
			require.NoError(t, err)

			err = store.Append(context.Background(), fieldsFor("id", "x"))
			var storeErr *StoreError
			require.ErrorAs(t, err, &storeErr)
			assert.Equal(t, tt.path, storeErr.Path)
		})
	}
}

func TestCSVStore_LineBreaksSurviveLaterAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "responses.csv")
	store, err := NewCSVStore(path)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, fieldsFor("a", "line one\r\nline two\rline three")))
	before, err := store.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, before, 1)
	like, _ := before[0].Get(feedback.ColumnLike)
	assert.Equal(t, "line one\nline two\nline three", like)

	require.NoError(t, store.Append(ctx, fieldsFor("b", "plain")))
	after, err := store.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, after, 2)
	assert.Equal(t, before[0], after[0])
}

func TestCSVStore_KeepsFileMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "responses.csv")
	store, err := NewCSVStore(path)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, fieldsFor("a", "x")))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	require.NoError(t, os.Chmod(path, 0o600))
	require.NoError(t, store.Append(ctx, fieldsFor("b", "y")))
	info, err = os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestCSVStore_CorruptFileIsLeftUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.csv")
	content := []byte("id,like\n\"unterminated,1\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	store, err := NewCSVStore(path)
	require.NoError(t, err)
	_, err = store.ReadAll(context.Background())
	require.Error(t, err)
	_ = store.Append(context.Background(), fieldsFor("id", "x"))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, after)
}

func TestCSVStore_CancelledContext(t *testing.T) {
	store, err := NewCSVStore(filepath.Join(t.TempDir(), "responses.csv"))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = store.Append(ctx, fieldsFor("id", "x"))
	assert.True(t, errors.Is(err, context.Canceled))
	var storeErr *StoreError
	assert.ErrorAs(t, err, &storeErr)
}

func TestCSVStore_ConcurrentAppends(t *testing.T) {
	store, err := NewCSVStore(filepath.Join(t.TempDir(), "responses.csv"))
	require.NoError(t, err)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, store.Append(ctx, fieldsFor(fmt.Sprintf("id-%d", i), "x")))
		}(i)
	}
	wg.Wait()

	rows, err := store.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, n)
}

func TestCSVStore_UniqueIDsFromRecords(t *testing.T) {
	store, err := NewCSVStore(filepath.Join(t.TempDir(), "responses.csv"))
	require.NoError(t, err)
	ctx := context.Background()
	variant, err := feedback.VariantByName("")
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		snapshot := feedback.FormSnapshot{Like: "l", Dislike: "d", Rating: 5}
		mod, err := feedback.NewModificationRequest(snapshot, variant)
		require.NoError(t, err)
		rec, err := feedback.BuildRecord(snapshot, mod, variant, feedback.UUIDGenerator{}, time.Now())
		require.NoError(t, err)
		require.NoError(t, store.Append(ctx, rec.Fields()))
	}

	rows, err := store.ReadAll(ctx)
	require.NoError(t, err)
	seen := map[string]bool{}
	for _, row := range rows {
		id, ok := row.Get(feedback.ColumnID)
		require.True(t, ok)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, 10)
}
