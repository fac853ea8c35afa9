package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tessera-search/tessera/internal/core/domain"
)

// mockVectorStore implements driven.VectorStore for testing the count and
// delete commands. Only the methods those commands touch do real work.
type mockVectorStore struct {
	counts      map[string]int
	collections []string
	err         error
	deleted     map[string]map[string]string
}

func (m *mockVectorStore) Add(_ context.Context, _ string, _ []domain.StorageRecord) error {
	return nil
}

func (m *mockVectorStore) Query(_ context.Context, _ string, _ domain.TextEncoding, _ int) ([]domain.Hit, error) {
	return nil, nil
}

func (m *mockVectorStore) ListDocumentIDs(_ context.Context, _ string) ([]string, error) {
	return nil, nil
}

func (m *mockVectorStore) Delete(_ context.Context, collection string, filter map[string]string) error {
	if m.err != nil {
		return m.err
	}
	if m.deleted == nil {
		m.deleted = make(map[string]map[string]string)
	}
	m.deleted[collection] = filter
	return nil
}

func (m *mockVectorStore) Count(_ context.Context) (map[string]int, error) {
	return m.counts, m.err
}

func (m *mockVectorStore) Collections(_ context.Context) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.collections, nil
}

func (m *mockVectorStore) Close() error { return nil }

func setupStoreTest(m *mockVectorStore) func() {
	oldStore := vectorStore
	vectorStore = m
	return func() {
		vectorStore = oldStore
		deleteSource = ""
	}
}

func TestCountCmd_PrintsPerCollectionCounts(t *testing.T) {
	m := &mockVectorStore{counts: map[string]int{
		"clip-image":    12,
		"whisper-audio": 3,
	}}
	cleanup := setupStoreTest(m)
	defer cleanup()

	out, err := executeCommand("count")

	assert.NoError(t, err)
	assert.Contains(t, out, "clip-image")
	assert.Contains(t, out, "12")
	assert.Contains(t, out, "whisper-audio")
	assert.Contains(t, out, "total")
	assert.Contains(t, out, "15")
}

func TestCountCmd_EmptyIndex(t *testing.T) {
	cleanup := setupStoreTest(&mockVectorStore{})
	defer cleanup()

	out, err := executeCommand("count")

	assert.NoError(t, err)
	assert.Contains(t, out, "The index is empty.")
}

func TestCountCmd_StoreError(t *testing.T) {
	cleanup := setupStoreTest(&mockVectorStore{err: errors.New("io fault")})
	defer cleanup()

	_, err := executeCommand("count")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "count failed")
}

func TestCountCmd_StoreNotConfigured(t *testing.T) {
	oldStore := vectorStore
	vectorStore = nil
	defer func() { vectorStore = oldStore }()

	_, err := executeCommand("count")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "vector store not configured")
}

func TestDeleteCmd_BySourceFiltersEveryCollection(t *testing.T) {
	m := &mockVectorStore{collections: []string{"clip-image", "whisper-audio"}}
	cleanup := setupStoreTest(m)
	defer cleanup()

	out, err := executeCommand("delete", "--source", "/photos")

	assert.NoError(t, err)
	assert.Contains(t, out, "Deleted records for source /photos")
	assert.Equal(t, map[string]string{domain.MetaSourceID: "/photos"}, m.deleted["clip-image"])
	assert.Equal(t, map[string]string{domain.MetaSourceID: "/photos"}, m.deleted["whisper-audio"])
}

func TestDeleteCmd_WithoutSourceClearsIndex(t *testing.T) {
	m := &mockVectorStore{collections: []string{"clip-image"}}
	cleanup := setupStoreTest(m)
	defer cleanup()

	out, err := executeCommand("delete")

	assert.NoError(t, err)
	assert.Contains(t, out, "Cleared 1 collections.")
	assert.Equal(t, map[string]string{}, m.deleted["clip-image"])
}

func TestDeleteCmd_StoreError(t *testing.T) {
	cleanup := setupStoreTest(&mockVectorStore{err: errors.New("io fault")})
	defer cleanup()

	_, err := executeCommand("delete")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "delete failed")
}
