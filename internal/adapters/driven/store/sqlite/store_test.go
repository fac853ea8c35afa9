package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-search/tessera/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testRecords() []domain.StorageRecord {
	return []domain.StorageRecord{
		{
			ID:        "a",
			Document:  "a red bicycle leaning on a wall",
			Embedding: []float32{1, 0, 0},
			Metadata: map[string]any{
				domain.MetaDocumentID: "/photos/bike.jpg",
				domain.MetaSourceID:   "/photos",
				domain.MetaSourceType: "LOCAL",
			},
		},
		{
			ID:        "b",
			Document:  "a blue whale underwater",
			Embedding: []float32{0, 1, 0},
			Metadata: map[string]any{
				domain.MetaDocumentID: "/photos/whale.jpg",
				domain.MetaSourceID:   "/photos",
				domain.MetaSourceType: "LOCAL",
			},
		},
		{
			ID:       "c",
			Document: "transcript segment about bicycles",
			Metadata: map[string]any{
				domain.MetaDocumentID: "video-abc",
				domain.MetaSourceID:   "youtube:chan",
				domain.MetaSourceType: "YOUTUBE",
				"start":               0.0,
				"end":                 4.2,
			},
		},
	}
}

func TestStoreCreatesSchema(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "index.db"), store.Path())
	require.NoError(t, store.Close())

	// Reopening runs migrations idempotently.
	store, err = NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}

func TestStoreAddAndQueryByVector(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Add(ctx, "clip-image", testRecords()[:2]))

	hits, err := store.Query(ctx, "clip-image",
		domain.TextEncoding{Embedding: []float32{1, 0, 0}}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "a", hits[0].ID)
	assert.InDelta(t, 0, *hits[0].Distance, 1e-6)
	assert.Equal(t, "a red bicycle leaning on a wall", hits[0].Document)
	assert.Equal(t, "LOCAL", hits[0].Metadata[domain.MetaSourceType])

	assert.Equal(t, "b", hits[1].ID)
	assert.InDelta(t, 1, *hits[1].Distance, 1e-6)
}

func TestStoreQueryByText(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Add(ctx, "whisper-audio", testRecords()[2:]))

	hits, err := store.Query(ctx, "whisper-audio",
		domain.TextEncoding{Text: "bicycles"}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 0, *hits[0].Distance, 1e-6)
	assert.Equal(t, 4.2, hits[0].Metadata["end"], "model metadata round-trips through json")
}

func TestStoreQueryLimitsResults(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Add(ctx, "c", testRecords()[:2]))

	hits, err := store.Query(ctx, "c", domain.TextEncoding{Embedding: []float32{1, 0, 0}}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].ID)
}

func TestStoreAddReplacesByID(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Add(ctx, "c", testRecords()))
	require.NoError(t, store.Add(ctx, "c", []domain.StorageRecord{{
		ID:        "a",
		Document:  "updated document",
		Embedding: []float32{1, 0, 0},
		Metadata:  map[string]any{domain.MetaDocumentID: "/photos/bike.jpg"},
	}}))

	counts, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, counts["c"])
}

func TestStoreListDocumentIDs(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Add(ctx, "c", testRecords()))
	// A second segment of the same source document.
	require.NoError(t, store.Add(ctx, "c", []domain.StorageRecord{{
		ID:       "d",
		Document: "another segment",
		Metadata: map[string]any{domain.MetaDocumentID: "video-abc"},
	}}))

	ids, err := store.ListDocumentIDs(ctx, "c")
	require.NoError(t, err)
	assert.ElementsMatch(t, ids, []string{"/photos/bike.jpg", "/photos/whale.jpg", "video-abc"})

	empty, err := store.ListDocumentIDs(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStoreDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("by provenance column", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.Add(ctx, "c", testRecords()))

		err := store.Delete(ctx, "c", map[string]string{domain.MetaSourceID: "/photos"})
		require.NoError(t, err)

		counts, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, counts["c"], "only the youtube record survives")
	})

	t.Run("by metadata json", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.Add(ctx, "c", []domain.StorageRecord{
			{ID: "x", Document: "d", Metadata: map[string]any{"type": "caption"}},
			{ID: "y", Document: "d", Metadata: map[string]any{"type": "ocr"}},
		}))

		require.NoError(t, store.Delete(ctx, "c", map[string]string{"type": "caption"}))

		counts, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, counts["c"])
	})

	t.Run("empty filter clears collection", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.Add(ctx, "c", testRecords()))
		require.NoError(t, store.Add(ctx, "other", testRecords()[:1]))

		require.NoError(t, store.Delete(ctx, "c", nil))

		counts, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, counts["c"])
		assert.Equal(t, 1, counts["other"], "other collections are untouched")
	})
}

func TestStoreCollections(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Add(ctx, "b-coll", testRecords()[:1]))
	require.NoError(t, store.Add(ctx, "a-coll", testRecords()[:1]))

	names, err := store.Collections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a-coll", "b-coll"}, names)
}

func TestFloat32BlobRoundTrip(t *testing.T) {
	in := []float32{0.1, -2.5, 3.14159, 0}
	assert.Equal(t, in, bytesToFloat32Slice(float32SliceToBytes(in)))
	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
}
