package services

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-search/tessera/internal/core/domain"
)

// writeTestImage writes a minimal valid png under dir and returns its path.
func writeTestImage(t *testing.T, dir, name string) string {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))))

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

// newImageOrchestrator wires an orchestrator over one local image and the
// given model/store pair.
func newImageOrchestrator(models []*mockModel, store *mockStore, items ...domain.RawItem) *IngestOrchestrator {
	adapter := &mockAdapter{kind: domain.SourceLocal, items: items}
	resolver := NewSourceResolver(adapter)

	registry := NewModelRegistry()
	for _, m := range models {
		for kind := range m.kinds {
			_ = registry.Register(kind, m)
		}
	}
	return NewIngestOrchestrator(resolver, registry, store)
}

func TestIngestSingleImage(t *testing.T) {
	dir := t.TempDir()
	path := writeTestImage(t, dir, "photo.jpg")

	model := newMockModel("m", domain.MediaImage)
	model.mediaResult = domain.EncodingResult{
		Embeddings: [][]float32{{0, 0, 0}},
		IDs:        []string{"id1"},
	}
	store := newMockStore()

	orch := newImageOrchestrator([]*mockModel{model}, store,
		domain.RawItem{DocumentID: path, Path: path})

	stats, err := orch.Ingest(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 0, stats.Skipped)
	assert.Equal(t, 0, stats.Failed)

	collection := model.CollectionName(domain.MediaImage)
	require.Len(t, store.added[collection], 1)

	rec := store.added[collection][0]
	assert.Equal(t, "id1", rec.ID)
	assert.Equal(t, path, rec.Document)
	assert.Equal(t, []float32{0, 0, 0}, rec.Embedding)
	assert.Equal(t, "LOCAL", rec.Metadata[domain.MetaSourceType])
	assert.Equal(t, dir, rec.Metadata[domain.MetaSourceID])
	assert.Equal(t, path, rec.Metadata[domain.MetaDocumentID])

	assert.Equal(t, domain.SourceLocal, model.lastSourceKind)
	assert.Equal(t, domain.MediaImage, model.lastMedia.Kind)
	assert.NotEmpty(t, model.lastMedia.Bytes, "image content is loaded into memory")
}

func TestIngestIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeTestImage(t, dir, "photo.jpg")

	model := newMockModel("m", domain.MediaImage)
	model.mediaResult = domain.EncodingResult{Embeddings: [][]float32{{1}}}

	store := newMockStore()
	store.existingIDs[model.CollectionName(domain.MediaImage)] = []string{path}

	orch := newImageOrchestrator([]*mockModel{model}, store,
		domain.RawItem{DocumentID: path, Path: path})

	stats, err := orch.Ingest(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Processed)
	assert.Equal(t, 1, stats.Skipped)
	assert.Zero(t, store.addCalls, "already-indexed items produce no writes")
	assert.Zero(t, model.encodeMediaCalls, "already-indexed items are not re-encoded")
}

func TestIngestSkipsUnknownKinds(t *testing.T) {
	model := newMockModel("m", domain.MediaImage)
	store := newMockStore()

	orch := newImageOrchestrator([]*mockModel{model}, store,
		domain.RawItem{DocumentID: "archive.xyz123", Path: "archive.xyz123"})

	stats, err := orch.Ingest(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
	assert.Zero(t, store.addCalls)
}

func TestIngestSkipsKindsWithoutModels(t *testing.T) {
	model := newMockModel("m", domain.MediaImage)
	store := newMockStore()

	// An audio item with only an image model configured.
	orch := newImageOrchestrator([]*mockModel{model}, store,
		domain.RawItem{DocumentID: "talk.mp3", Path: "talk.mp3"})

	stats, err := orch.Ingest(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
	assert.Zero(t, store.addCalls)
}

func TestIngestClassifiesOpaqueIDsByPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dQw4w9WgXcQ.m4a")
	require.NoError(t, os.WriteFile(path, []byte("downloaded audio"), 0o644))

	model := newMockModel("m", domain.MediaAudio)
	model.mediaResult = domain.EncodingResult{Documents: []string{"segment"}}
	store := newMockStore()

	// A platform item: opaque document id, classified via the local copy.
	orch := newImageOrchestrator([]*mockModel{model}, store,
		domain.RawItem{DocumentID: "youtube:dQw4w9WgXcQ", Path: path})

	stats, err := orch.Ingest(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)

	records := store.added[model.CollectionName(domain.MediaAudio)]
	require.Len(t, records, 1)
	assert.Equal(t, "youtube:dQw4w9WgXcQ", records[0].Metadata[domain.MetaDocumentID])
}

func TestIngestContinuesPastItemFailures(t *testing.T) {
	dir := t.TempDir()
	good := writeTestImage(t, dir, "good.png")

	// Not a decodable image.
	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0o644))

	model := newMockModel("m", domain.MediaImage)
	model.mediaResult = domain.EncodingResult{Embeddings: [][]float32{{1}}}
	store := newMockStore()

	orch := newImageOrchestrator([]*mockModel{model}, store,
		domain.RawItem{DocumentID: bad, Path: bad},
		domain.RawItem{DocumentID: good, Path: good})

	stats, err := orch.Ingest(context.Background(), dir)
	require.NoError(t, err, "item failures never abort the run")
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, store.addCalls)
}

func TestIngestCountsLoadFailurePerModel(t *testing.T) {
	dir := t.TempDir()

	// Not a decodable image; both image models lose their unit.
	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0o644))

	first := newMockModel("first", domain.MediaImage)
	second := newMockModel("second", domain.MediaImage)
	store := newMockStore()

	orch := newImageOrchestrator([]*mockModel{first, second}, store,
		domain.RawItem{DocumentID: bad, Path: bad})

	stats, err := orch.Ingest(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Failed, "accounting stays per (item, model) unit")
	assert.Equal(t, 0, stats.Processed)
	assert.Zero(t, store.addCalls)
}

func TestIngestRemovesTransientDownloads(t *testing.T) {
	dir := t.TempDir()
	path := writeTestImage(t, dir, "download.jpg")

	model := newMockModel("m", domain.MediaImage)
	model.mediaResult = domain.EncodingResult{Embeddings: [][]float32{{1}}}
	store := newMockStore()

	orch := newImageOrchestrator([]*mockModel{model}, store,
		domain.RawItem{DocumentID: "s3://bucket/download.jpg", Path: path, Transient: true})

	stats, err := orch.Ingest(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)
	assert.NoFileExists(t, path, "transient downloads are removed after processing")
}

func TestIngestKeepsNonTransientPaths(t *testing.T) {
	dir := t.TempDir()
	path := writeTestImage(t, dir, "photo.jpg")

	model := newMockModel("m", domain.MediaImage)
	model.mediaResult = domain.EncodingResult{Embeddings: [][]float32{{1}}}
	store := newMockStore()

	orch := newImageOrchestrator([]*mockModel{model}, store,
		domain.RawItem{DocumentID: path, Path: path})

	_, err := orch.Ingest(context.Background(), dir)
	require.NoError(t, err)
	assert.FileExists(t, path, "the user's own files are never touched")
}

func TestIngestCountsEncodeAndWriteFailures(t *testing.T) {
	dir := t.TempDir()
	path := writeTestImage(t, dir, "photo.png")
	item := domain.RawItem{DocumentID: path, Path: path}

	t.Run("model failure", func(t *testing.T) {
		model := newMockModel("m", domain.MediaImage)
		model.mediaErr = errSentinel("encode blew up")
		store := newMockStore()

		stats, err := newImageOrchestrator([]*mockModel{model}, store, item).
			Ingest(context.Background(), dir)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Failed)
		assert.Zero(t, store.addCalls)
	})

	t.Run("inconsistent encoding", func(t *testing.T) {
		model := newMockModel("m", domain.MediaImage)
		model.mediaResult = domain.EncodingResult{
			Documents: []string{"a"},
			IDs:       []string{"x", "y"},
		}
		store := newMockStore()

		stats, err := newImageOrchestrator([]*mockModel{model}, store, item).
			Ingest(context.Background(), dir)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Failed)
		assert.Zero(t, store.addCalls)
	})

	t.Run("store write failure", func(t *testing.T) {
		model := newMockModel("m", domain.MediaImage)
		model.mediaResult = domain.EncodingResult{Embeddings: [][]float32{{1}}}
		store := newMockStore()
		store.addErr = errSentinel("disk full")

		stats, err := newImageOrchestrator([]*mockModel{model}, store, item).
			Ingest(context.Background(), dir)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Failed)
	})
}

func TestIngestFansOutAcrossModels(t *testing.T) {
	dir := t.TempDir()
	path := writeTestImage(t, dir, "photo.png")

	clip := newMockModel("clip", domain.MediaImage)
	clip.mediaResult = domain.EncodingResult{Embeddings: [][]float32{{1}}}
	caption := newMockModel("caption", domain.MediaImage)
	caption.mediaResult = domain.EncodingResult{Documents: []string{"a cat"}}

	store := newMockStore()
	orch := newImageOrchestrator([]*mockModel{clip, caption}, store,
		domain.RawItem{DocumentID: path, Path: path})

	stats, err := orch.Ingest(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Processed, "each model counts separately")
	assert.Len(t, store.added[clip.CollectionName(domain.MediaImage)], 1)
	assert.Len(t, store.added[caption.CollectionName(domain.MediaImage)], 1)
	assert.Equal(t, 1, clip.encodeMediaCalls)
	assert.Equal(t, 1, caption.encodeMediaCalls)
}

func TestIngestListsExistingIDsOncePerCollection(t *testing.T) {
	dir := t.TempDir()
	first := writeTestImage(t, dir, "a.png")
	second := writeTestImage(t, dir, "b.png")

	model := newMockModel("m", domain.MediaImage)
	model.mediaResult = domain.EncodingResult{Embeddings: [][]float32{{1}}}
	store := newMockStore()

	orch := newImageOrchestrator([]*mockModel{model}, store,
		domain.RawItem{DocumentID: first, Path: first},
		domain.RawItem{DocumentID: second, Path: second})

	_, err := orch.Ingest(context.Background(), dir)
	require.NoError(t, err)

	collection := model.CollectionName(domain.MediaImage)
	assert.Equal(t, 1, store.listCalls[collection], "existing ids are fetched once per run")
	assert.Len(t, store.added[collection], 2)
}

func TestIngestAbortsOnEnumerationFailure(t *testing.T) {
	adapter := &mockAdapter{kind: domain.SourceLocal, err: errSentinel("listing denied")}
	resolver := NewSourceResolver(adapter)
	orch := NewIngestOrchestrator(resolver, NewModelRegistry(), newMockStore())

	_, err := orch.Ingest(context.Background(), t.TempDir())
	assert.ErrorContains(t, err, "listing denied")
}

func TestIngestUnrecognizedSource(t *testing.T) {
	orch := NewIngestOrchestrator(NewSourceResolver(), NewModelRegistry(), newMockStore())

	_, err := orch.Ingest(context.Background(), "gs://not-a-thing")
	assert.ErrorIs(t, err, domain.ErrUnrecognizedSource)
}

func TestIngestReportsItemsViaCallback(t *testing.T) {
	dir := t.TempDir()
	path := writeTestImage(t, dir, "photo.png")

	model := newMockModel("m", domain.MediaImage)
	model.mediaResult = domain.EncodingResult{Embeddings: [][]float32{{1}}}

	orch := newImageOrchestrator([]*mockModel{model}, newMockStore(),
		domain.RawItem{DocumentID: path, Path: path})

	var seen []string
	orch.OnItem(func(documentID string) { seen = append(seen, documentID) })

	_, err := orch.Ingest(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, seen)
}
