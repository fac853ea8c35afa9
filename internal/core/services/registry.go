package services

import (
	"fmt"

	"github.com/tessera-search/tessera/internal/core/domain"
	"github.com/tessera-search/tessera/internal/core/ports/driven"
)

// ModelRegistry holds the ordered embedding models configured per media
// kind. Composition is static per run: models are registered at startup and
// never mutated during ingestion or query. Registration order is
// significant - it fixes the order in which multiple models' outputs are
// written and queried, and therefore the tie-break order when results from
// several models over the same kind are concatenated.
type ModelRegistry struct {
	models map[domain.MediaKind][]driven.EmbeddingModel
}

// NewModelRegistry creates an empty registry.
func NewModelRegistry() *ModelRegistry {
	return &ModelRegistry{models: make(map[domain.MediaKind][]driven.EmbeddingModel)}
}

// Register appends a model to the ordered list for a media kind.
// A model may only be bound to kinds it supports; binding it elsewhere is
// a configuration defect caught here rather than at encode time.
func (r *ModelRegistry) Register(kind domain.MediaKind, model driven.EmbeddingModel) error {
	if kind == domain.MediaUnknown {
		return fmt.Errorf("%w: cannot register model %q for unknown media kind",
			domain.ErrInvalidInput, model.Name())
	}
	if !model.Supports(kind) {
		return fmt.Errorf("%w: model %q does not support %s",
			domain.ErrUnsupportedMedia, model.Name(), kind)
	}
	r.models[kind] = append(r.models[kind], model)
	return nil
}

// ModelsFor returns the ordered models for a kind. An empty slice (not an
// error) means the kind is unsupported and callers should skip it.
func (r *ModelRegistry) ModelsFor(kind domain.MediaKind) []driven.EmbeddingModel {
	return r.models[kind]
}

// Close closes every registered model once.
func (r *ModelRegistry) Close() error {
	seen := make(map[driven.EmbeddingModel]bool)
	var firstErr error
	for _, models := range r.models {
		for _, m := range models {
			if seen[m] {
				continue
			}
			seen[m] = true
			if err := m.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
