package utils

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteDocumentStore {
	t.Helper()

	store, err := NewSQLiteDocumentStore(filepath.Join(t.TempDir(), "docstore_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func TestDocumentRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	record := map[string]any{
		"firstName":   "Ada",
		"companyName": "Acme",
		"score":       42.0,
	}
	require.NoError(t, store.SetDocument(ctx, "users", "u1", record))

	got, err := store.GetDocument(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got["firstName"])
	assert.Equal(t, "Acme", got["companyName"])
	assert.Equal(t, 42.0, got["score"])
}

func TestGetDocumentNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetDocument(context.Background(), "users", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetDocumentUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetDocument(ctx, "users", "u1", map[string]any{"companyName": "Acme"}))
	require.NoError(t, store.SetDocument(ctx, "users", "u1", map[string]any{"companyName": "Globex"}))

	got, err := store.GetDocument(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, "Globex", got["companyName"])
	assert.NotContains(t, got, "firstName")
}

func TestDeleteDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetDocument(ctx, "users", "u1", map[string]any{"a": 1.0}))
	require.NoError(t, store.DeleteDocument(ctx, "users", "u1"))

	_, err := store.GetDocument(ctx, "users", "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a missing document is not an error
	assert.NoError(t, store.DeleteDocument(ctx, "users", "u1"))
}

func TestListDocuments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetDocument(ctx, "users", "u1", map[string]any{"name": "Ada"}))
	require.NoError(t, store.SetDocument(ctx, "users", "u2", map[string]any{"name": "Bob"}))
	require.NoError(t, store.SetDocument(ctx, "reports", "r1", map[string]any{"name": "Q3"}))

	users, err := store.ListDocuments(ctx, "users")
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Ada", users["u1"]["name"])
	assert.Equal(t, "Bob", users["u2"]["name"])

	empty, err := store.ListDocuments(ctx, "sessions")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDeleteOlderThan(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetDocument(ctx, "analyses", "a1", map[string]any{"n": 1.0}))
	require.NoError(t, store.SetDocument(ctx, "analyses", "a2", map[string]any{"n": 2.0}))

	// Everything was written just now, so a past cutoff removes nothing
	removed, err := store.DeleteOlderThan(ctx, "analyses", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(0), removed)

	removed, err = store.DeleteOlderThan(ctx, "analyses", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	remaining, err := store.ListDocuments(ctx, "analyses")
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestStoreHealth(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.Health(context.Background()))
}
