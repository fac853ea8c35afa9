package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/tessera-search/tessera/internal/core/domain"
	"github.com/tessera-search/tessera/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is an in-memory implementation of driven.VectorStore.
// Similarity search is a brute-force scan: cosine distance against the
// query vector, or a term-overlap score when the query is raw text.
// Intended for tests and small corpora.
type VectorStore struct {
	mu          sync.RWMutex
	collections map[string][]domain.StorageRecord
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{collections: make(map[string][]domain.StorageRecord)}
}

// Add appends records to a collection, creating it on first use.
// Records whose ID already exists in the collection are replaced.
func (s *VectorStore) Add(_ context.Context, collection string, records []domain.StorageRecord) error {
	if len(records) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.collections[collection]
	for _, rec := range records {
		replaced := false
		for i := range existing {
			if existing[i].ID == rec.ID {
				existing[i] = rec
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, rec)
		}
	}
	s.collections[collection] = existing
	return nil
}

// Query scans a collection and returns up to nResults hits ordered by
// ascending distance. Vector queries score by cosine distance; text queries
// score by term overlap. Records that cannot be scored against the query
// payload are skipped.
func (s *VectorStore) Query(
	_ context.Context,
	collection string,
	query domain.TextEncoding,
	nResults int,
) ([]domain.Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []domain.Hit
	for _, rec := range s.collections[collection] {
		var distance float64
		switch {
		case len(query.Embedding) > 0:
			if len(rec.Embedding) != len(query.Embedding) {
				continue
			}
			distance = cosineDistance(query.Embedding, rec.Embedding)
		case query.Text != "":
			distance = lexicalDistance(query.Text, rec.Document)
		default:
			continue
		}

		d := distance
		hits = append(hits, domain.Hit{
			ID:       rec.ID,
			Distance: &d,
			Document: rec.Document,
			Metadata: rec.Metadata,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return *hits[i].Distance < *hits[j].Distance
	})
	if nResults > 0 && len(hits) > nResults {
		hits = hits[:nResults]
	}
	return hits, nil
}

// ListDocumentIDs returns the distinct document_id metadata values present
// in a collection.
func (s *VectorStore) ListDocumentIDs(_ context.Context, collection string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var ids []string
	for _, rec := range s.collections[collection] {
		id, ok := rec.Metadata[domain.MetaDocumentID].(string)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

// Delete removes records whose metadata matches every filter entry.
// An empty filter clears the collection.
func (s *VectorStore) Delete(_ context.Context, collection string, filter map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.collections[collection]
	kept := records[:0]
	for _, rec := range records {
		if !metadataMatches(rec.Metadata, filter) {
			kept = append(kept, rec)
		}
	}
	s.collections[collection] = kept
	return nil
}

// Count returns the record count per collection.
func (s *VectorStore) Count(_ context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int, len(s.collections))
	for name, records := range s.collections {
		counts[name] = len(records)
	}
	return counts, nil
}

// Collections returns the known collection names in sorted order.
func (s *VectorStore) Collections(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Close releases nothing; present to satisfy the interface.
func (s *VectorStore) Close() error { return nil }

func metadataMatches(metadata map[string]any, filter map[string]string) bool {
	for key, want := range filter {
		got, ok := metadata[key].(string)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// cosineDistance is 1 - cosine similarity, so smaller means more similar.
// Zero vectors are maximally distant.
func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

// lexicalDistance scores a document against a text query by the fraction of
// query terms present in the document, mapped onto the same lower-is-closer
// scale as cosine distance.
func lexicalDistance(query, document string) float64 {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return 1
	}
	doc := strings.ToLower(document)

	matched := 0
	for _, term := range terms {
		if strings.Contains(doc, term) {
			matched++
		}
	}
	return 1 - float64(matched)/float64(len(terms))
}
