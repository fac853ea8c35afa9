package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/tessera-search/tessera/internal/core/domain"
)

// --- Shared mock implementations for service tests ---

// mockModel implements driven.EmbeddingModel with canned results.
type mockModel struct {
	name        string
	kinds       map[domain.MediaKind]bool
	mediaResult domain.EncodingResult
	mediaErr    error
	textResult  domain.TextEncoding
	textErr     error

	encodeMediaCalls int
	encodeTextCalls  int
	lastMedia        domain.Media
	lastSourceKind   domain.SourceKind
}

func newMockModel(name string, kinds ...domain.MediaKind) *mockModel {
	m := &mockModel{name: name, kinds: make(map[domain.MediaKind]bool)}
	for _, k := range kinds {
		m.kinds[k] = true
	}
	return m
}

func (m *mockModel) Name() string { return m.name }

func (m *mockModel) Supports(kind domain.MediaKind) bool { return m.kinds[kind] }

func (m *mockModel) CollectionName(kind domain.MediaKind) string {
	return m.name + "-" + kind.String()
}

func (m *mockModel) EncodeMedia(_ context.Context, media domain.Media, source domain.SourceKind) (domain.EncodingResult, error) {
	m.encodeMediaCalls++
	m.lastMedia = media
	m.lastSourceKind = source
	return m.mediaResult, m.mediaErr
}

func (m *mockModel) EncodeText(_ context.Context, _ string) (domain.TextEncoding, error) {
	m.encodeTextCalls++
	return m.textResult, m.textErr
}

func (m *mockModel) Close() error { return nil }

// mockStore implements driven.VectorStore and records writes.
type mockStore struct {
	mu          sync.Mutex
	added       map[string][]domain.StorageRecord
	existingIDs map[string][]string
	queryHits   map[string][]domain.Hit
	addErr      error
	queryErr    error
	listErr     error

	addCalls  int
	listCalls map[string]int
}

func newMockStore() *mockStore {
	return &mockStore{
		added:       make(map[string][]domain.StorageRecord),
		existingIDs: make(map[string][]string),
		queryHits:   make(map[string][]domain.Hit),
		listCalls:   make(map[string]int),
	}
}

func (s *mockStore) Add(_ context.Context, collection string, records []domain.StorageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addErr != nil {
		return s.addErr
	}
	s.addCalls++
	s.added[collection] = append(s.added[collection], records...)
	return nil
}

func (s *mockStore) Query(_ context.Context, collection string, _ domain.TextEncoding, _ int) ([]domain.Hit, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return s.queryHits[collection], nil
}

func (s *mockStore) ListDocumentIDs(_ context.Context, collection string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.listCalls[collection]++
	return s.existingIDs[collection], nil
}

func (s *mockStore) Delete(_ context.Context, _ string, _ map[string]string) error { return nil }

func (s *mockStore) Count(_ context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for collection, records := range s.added {
		counts[collection] = len(records)
	}
	return counts, nil
}

func (s *mockStore) Collections(_ context.Context) ([]string, error) {
	var names []string
	for collection := range s.added {
		names = append(names, collection)
	}
	return names, nil
}

func (s *mockStore) Close() error { return nil }

// mockAdapter implements driven.SourceAdapter over a fixed item list.
type mockAdapter struct {
	kind  domain.SourceKind
	items []domain.RawItem
	err   error
}

func (a *mockAdapter) Kind() domain.SourceKind { return a.kind }

func (a *mockAdapter) Enumerate(ctx context.Context, _ string) (<-chan domain.RawItem, <-chan error) {
	items := make(chan domain.RawItem)
	errs := make(chan error, 1)

	go func() {
		defer close(items)
		defer close(errs)

		if a.err != nil {
			errs <- a.err
			return
		}
		for _, item := range a.items {
			select {
			case <-ctx.Done():
				return
			case items <- item:
			}
		}
	}()

	return items, errs
}

// mockLLM implements driven.LLMService.
type mockLLM struct {
	answer     string
	err        error
	lastPrompt string
}

func (l *mockLLM) Answer(_ context.Context, prompt string) (string, error) {
	l.lastPrompt = prompt
	if l.err != nil {
		return "", l.err
	}
	return l.answer, nil
}

func (l *mockLLM) ModelName() string { return "mock-llm" }

func (l *mockLLM) Close() error { return nil }

// float64Ptr is a shorthand for distance literals in tests.
func float64Ptr(v float64) *float64 { return &v }

// errSentinel builds a unique error for failure-injection tests.
func errSentinel(msg string) error { return fmt.Errorf("mock: %s", msg) }
