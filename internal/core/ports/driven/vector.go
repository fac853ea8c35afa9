package driven

import (
	"context"

	"github.com/tessera-search/tessera/internal/core/domain"
)

// VectorStore persists storage records and answers similarity queries.
// Collections partition the store per (model, media kind) pair, isolating
// incompatible embedding spaces.
type VectorStore interface {
	// Add writes records to a collection. Records with duplicate IDs
	// replace the existing record.
	Add(ctx context.Context, collection string, records []domain.StorageRecord) error

	// Query runs a similarity search against a collection. A query with an
	// embedding ranks by cosine distance (lower is closer); a query with
	// text only ranks lexically. Returns at most nResults hits.
	Query(ctx context.Context, collection string, query domain.TextEncoding, nResults int) ([]domain.Hit, error)

	// ListDocumentIDs returns the distinct provenance document_id values
	// present in a collection. Used for ingestion deduplication.
	ListDocumentIDs(ctx context.Context, collection string) ([]string, error)

	// Delete removes records matching all metadata key/value pairs in
	// filter from a collection.
	Delete(ctx context.Context, collection string, filter map[string]string) error

	// Count returns the number of records per collection.
	Count(ctx context.Context) (map[string]int, error)

	// Collections returns the names of all known collections.
	Collections(ctx context.Context) ([]string, error)

	// Close releases resources.
	Close() error
}
