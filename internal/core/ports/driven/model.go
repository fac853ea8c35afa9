package driven

import (
	"context"

	"github.com/tessera-search/tessera/internal/core/domain"
)

// EmbeddingModel converts raw media or query text into vector and/or textual
// representations. Each concrete model (CLIP-style image embedder, speech
// transcriber, image captioner) implements this interface.
//
// Models are long-lived singletons shared across calls. Expensive resources
// (API clients, remote model warm-up) are acquired lazily on first encode,
// never in the constructor.
type EmbeddingModel interface {
	// Name returns a short model identifier used in logs.
	Name() string

	// Supports reports whether the model can encode the given media kind.
	// The registry only binds models to kinds they support.
	Supports(kind domain.MediaKind) bool

	// CollectionName returns the store collection for this model and kind.
	// Distinct models over the same kind must return distinct names so
	// their embedding spaces and dedup namespaces do not collide.
	CollectionName(kind domain.MediaKind) string

	// EncodeMedia converts one raw media item into an encoding result.
	// Returns domain.ErrUnsupportedMedia when the kind is outside the
	// model's supported set.
	EncodeMedia(ctx context.Context, media domain.Media, source domain.SourceKind) (domain.EncodingResult, error)

	// EncodeText converts a query string into a vector or lexical text
	// payload for similarity search.
	EncodeText(ctx context.Context, query string) (domain.TextEncoding, error)

	// Close releases resources.
	Close() error
}
