package driving

import (
	"context"

	"github.com/tessera-search/tessera/internal/core/domain"
)

// QueryOptions configures retrieval behaviour.
type QueryOptions struct {
	// NResults is the maximum hits requested per (model, kind) collection.
	// Defaults to 5 when zero or negative.
	NResults int

	// DistanceThreshold is the cosine-distance cutoff: only hits strictly
	// closer than the threshold survive. Defaults to 0.5 when zero.
	DistanceThreshold float64
}

// Querier retrieves context documents for a query string.
type Querier interface {
	// Query returns the filtered, per-kind retrieval results for the
	// requested media kinds.
	Query(ctx context.Context, text string, kinds []domain.MediaKind, opts QueryOptions) (map[domain.MediaKind][]domain.MediaData, error)
}

// Assistant answers natural-language questions using retrieved context.
type Assistant interface {
	// Ask retrieves context for the query and generates an answer.
	Ask(ctx context.Context, query string, kinds []domain.MediaKind, opts QueryOptions) (domain.QueryResult, error)
}
