package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/tessera-search/tessera/internal/core/domain"
	"github.com/tessera-search/tessera/internal/core/ports/driven"
	"github.com/tessera-search/tessera/internal/core/ports/driving"
	"github.com/tessera-search/tessera/internal/logger"
)

// Default retrieval parameters, applied when options are zero-valued.
const (
	DefaultNResults = 5
	// DefaultDistanceThreshold is the cosine-distance cutoff. The store
	// reports cosine distance, where smaller means more similar; only hits
	// strictly below the threshold are returned.
	DefaultDistanceThreshold = 0.5
)

// Ensure QueryService implements the interface.
var _ driving.Querier = (*QueryService)(nil)

// QueryService executes multi-model, multi-media similarity queries with
// distance-based filtering and per-kind result aggregation.
type QueryService struct {
	registry *ModelRegistry
	store    driven.VectorStore
}

// NewQueryService creates a new query service.
func NewQueryService(registry *ModelRegistry, store driven.VectorStore) *QueryService {
	return &QueryService{registry: registry, store: store}
}

// Query retrieves context documents for the query text across the requested
// media kinds.
//
// For each kind the registered models are queried in registration order and
// their surviving hits concatenated - model order first, then within-model
// rank. There is no cross-model re-ranking. Kinds with no configured model
// contribute an empty result list. Model and store failures at query time
// are batch-level and propagate to the caller.
func (s *QueryService) Query(
	ctx context.Context,
	text string,
	kinds []domain.MediaKind,
	opts driving.QueryOptions,
) (map[domain.MediaKind][]domain.MediaData, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	nResults := opts.NResults
	if nResults <= 0 {
		nResults = DefaultNResults
	}
	threshold := opts.DistanceThreshold
	if threshold == 0 {
		threshold = DefaultDistanceThreshold
	}

	results := make(map[domain.MediaKind][]domain.MediaData, len(kinds))
	for _, kind := range kinds {
		if kind == domain.MediaUnknown {
			continue
		}
		results[kind] = []domain.MediaData{}

		for _, model := range s.registry.ModelsFor(kind) {
			encoding, err := model.EncodeText(ctx, text)
			if err != nil {
				return nil, fmt.Errorf("encode query with %s: %w", model.Name(), err)
			}

			collection := model.CollectionName(kind)
			hits, err := s.store.Query(ctx, collection, encoding, nResults)
			if err != nil {
				return nil, fmt.Errorf("query %s: %w", collection, err)
			}

			kept := FilterByDistance(hits, threshold)
			logger.Debug("Collection %s: %d hits, %d within threshold %.3f",
				collection, len(hits), len(kept), threshold)

			for _, hit := range kept {
				results[kind] = append(results[kind], domain.MediaData{
					Document: hit.Document,
					Metadata: hit.Metadata,
				})
			}
		}
	}
	return results, nil
}

// FilterByDistance retains hits whose cosine distance is strictly below the
// threshold. Smaller distance means more similar; a hit at exactly the
// threshold is excluded. Hits without a distance are unrankable and dropped.
func FilterByDistance(hits []domain.Hit, threshold float64) []domain.Hit {
	kept := make([]domain.Hit, 0, len(hits))
	for _, hit := range hits {
		if hit.Distance == nil {
			continue
		}
		if *hit.Distance < threshold {
			kept = append(kept, hit)
		}
	}
	return kept
}
