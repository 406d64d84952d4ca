package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/remembercore/memcore/pkg/kvstore"
)

func TestKVSetGetDocument(t *testing.T) {
	ctx := context.Background()
	kv := openTestDB(t).KV()

	err := kv.SetDocument(ctx, "ghost_configs", "u1", map[string]any{"enabled": true, "default_public_trust": 0.3}, kvstore.SetOptions{})
	require.NoError(t, err)

	doc, err := kv.GetDocument(ctx, "ghost_configs", "u1")
	require.NoError(t, err)
	require.Equal(t, "u1", doc.ID)
	require.Equal(t, true, doc.Data["enabled"])
}

func TestKVGetDocumentMissing(t *testing.T) {
	ctx := context.Background()
	kv := openTestDB(t).KV()

	_, err := kv.GetDocument(ctx, "ghost_configs", "missing")
	require.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestKVSetDocumentMerge(t *testing.T) {
	ctx := context.Background()
	kv := openTestDB(t).KV()

	require.NoError(t, kv.SetDocument(ctx, "p", "1", map[string]any{"a": "1", "b": "2"}, kvstore.SetOptions{}))
	require.NoError(t, kv.SetDocument(ctx, "p", "1", map[string]any{"b": "3"}, kvstore.SetOptions{Merge: true}))

	doc, err := kv.GetDocument(ctx, "p", "1")
	require.NoError(t, err)
	require.Equal(t, "1", doc.Data["a"])
	require.Equal(t, "3", doc.Data["b"])
}

func TestKVAddDocumentGeneratesID(t *testing.T) {
	ctx := context.Background()
	kv := openTestDB(t).KV()

	id, err := kv.AddDocument(ctx, "tokens", map[string]any{"status": "pending"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	doc, err := kv.GetDocument(ctx, "tokens", id)
	require.NoError(t, err)
	require.Equal(t, "pending", doc.Data["status"])
}

func TestKVDeleteDocument(t *testing.T) {
	ctx := context.Background()
	kv := openTestDB(t).KV()

	require.NoError(t, kv.SetDocument(ctx, "p", "1", map[string]any{"a": 1}, kvstore.SetOptions{}))
	require.NoError(t, kv.DeleteDocument(ctx, "p", "1"))

	_, err := kv.GetDocument(ctx, "p", "1")
	require.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestKVQueryDocumentsWhere(t *testing.T) {
	ctx := context.Background()
	kv := openTestDB(t).KV()

	require.NoError(t, kv.SetDocument(ctx, "escalations", "1", map[string]any{"owner_id": "u1", "count": float64(2)}, kvstore.SetOptions{}))
	require.NoError(t, kv.SetDocument(ctx, "escalations", "2", map[string]any{"owner_id": "u2", "count": float64(5)}, kvstore.SetOptions{}))

	docs, err := kv.QueryDocuments(ctx, "escalations", kvstore.QueryOptions{
		Where: []kvstore.Where{{Field: "count", Op: kvstore.WhereGreaterOrEqual, Value: float64(3)}},
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "u2", docs[0].Data["owner_id"])
}

func TestKVCompareAndSetStatus(t *testing.T) {
	ctx := context.Background()
	kv := openTestDB(t).KV()

	id, err := kv.AddDocument(ctx, "tokens", map[string]any{"status": "pending"})
	require.NoError(t, err)

	ok, err := kv.CompareAndSetStatus(ctx, "tokens", id, "pending", "confirmed", nil)
	require.NoError(t, err)
	require.True(t, ok)

	doc, err := kv.GetDocument(ctx, "tokens", id)
	require.NoError(t, err)
	require.Equal(t, "confirmed", doc.Data["status"])
}

func TestKVCompareAndSetStatusRejectsStaleExpectation(t *testing.T) {
	ctx := context.Background()
	kv := openTestDB(t).KV()

	id, err := kv.AddDocument(ctx, "tokens", map[string]any{"status": "confirmed"})
	require.NoError(t, err)

	ok, err := kv.CompareAndSetStatus(ctx, "tokens", id, "pending", "denied", nil)
	require.NoError(t, err)
	require.False(t, ok, "status is already confirmed, not pending; the CAS must not fire")

	doc, err := kv.GetDocument(ctx, "tokens", id)
	require.NoError(t, err)
	require.Equal(t, "confirmed", doc.Data["status"], "rejected CAS must not mutate the document")
}

func TestKVCompareAndSetStatusWritesExtra(t *testing.T) {
	ctx := context.Background()
	kv := openTestDB(t).KV()

	id, err := kv.AddDocument(ctx, "tokens", map[string]any{"status": "pending"})
	require.NoError(t, err)

	ok, err := kv.CompareAndSetStatus(ctx, "tokens", id, "pending", "confirmed", map[string]any{"confirmed_at": "2026-08-01T00:00:00Z"})
	require.NoError(t, err)
	require.True(t, ok)

	doc, err := kv.GetDocument(ctx, "tokens", id)
	require.NoError(t, err)
	require.Equal(t, "confirmed", doc.Data["status"])
	require.Equal(t, "2026-08-01T00:00:00Z", doc.Data["confirmed_at"])
}

func TestKVCompareAndSetStatusMissingDocument(t *testing.T) {
	ctx := context.Background()
	kv := openTestDB(t).KV()

	_, err := kv.CompareAndSetStatus(ctx, "tokens", "missing", "pending", "confirmed", nil)
	require.Error(t, err)
}
