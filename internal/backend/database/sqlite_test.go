package database

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jo-hoe/conceptcheck/internal/feedback"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_AppendThenReadAll(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	const n = 4
	for i := 0; i < n; i++ {
		require.NoError(t, store.Append(ctx, fieldsFor(fmt.Sprintf("id-%d", i), fmt.Sprintf("like %d", i))))
	}

	rows, err := store.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, n)
	for i, row := range rows {
		assert.Equal(t, Row(fieldsFor(fmt.Sprintf("id-%d", i), fmt.Sprintf("like %d", i))), row)
	}
}

func TestSQLiteStore_EmptyStore(t *testing.T) {
	rows, err := newTestSQLiteStore(t).ReadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSQLiteStore_RejectsDuplicateID(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, fieldsFor("same", "a")))
	err := store.Append(ctx, fieldsFor("same", "b"))

	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	rows, err := store.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestSQLiteStore_DifferentColumnSetsShareTable(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	short := fieldsFor("a", "x")
	long := append(fieldsFor("b", "y"), feedback.Field{Name: feedback.ColumnLike2, Value: "z"})
	require.NoError(t, store.Append(ctx, short))
	require.NoError(t, store.Append(ctx, long))

	rows, err := store.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	_, ok := rows[0].Get(feedback.ColumnLike2)
	assert.False(t, ok)
	v, ok := rows[1].Get(feedback.ColumnLike2)
	assert.True(t, ok)
	assert.Equal(t, "z", v)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "responses.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, fieldsFor("kept", "x")))
	require.NoError(t, store.Close())

	store, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	rows, err := store.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	id, _ := rows[0].Get(feedback.ColumnID)
	assert.Equal(t, "kept", id)
}

func TestSQLiteStore_CancelledContext(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var storeErr *StoreError
	assert.ErrorAs(t, store.Append(ctx, fieldsFor("id", "x")), &storeErr)
}

func TestSQLiteStore_UnopenablePath(t *testing.T) {
	_, err := NewSQLiteStore(filepath.Join(t.TempDir(), "missing", "dir", "responses.db"))
	var storeErr *StoreError
	assert.ErrorAs(t, err, &storeErr)
}

func TestNewResponseStore(t *testing.T) {
	dir := t.TempDir()

	store, err := NewResponseStore(StoreTypeCSV, filepath.Join(dir, "r.csv"))
	require.NoError(t, err)
	assert.IsType(t, &CSVStore{}, store)

	store, err = NewResponseStore(StoreTypeSQLite, ":memory:")
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, store)
	require.NoError(t, store.Close())

	_, err = NewResponseStore("parquet", "x")
	assert.Error(t, err)
}
