package driven

import (
	"context"

	"github.com/tessera-search/tessera/internal/core/domain"
)

// SourceAdapter enumerates raw media items for a source string.
// One adapter exists per SourceKind (local filesystem, S3, YouTube).
type SourceAdapter interface {
	// Kind returns the source kind this adapter handles.
	Kind() domain.SourceKind

	// Enumerate streams the items reachable from the source string.
	// Enumeration is lazy where the backend supports it (paginated object
	// listings) to bound memory on large sources. Item-level fetch
	// failures are logged and skipped inside the adapter; batch-level
	// failures (listing errors, bad source) are sent on the error channel
	// and terminate the stream. Both channels close when done.
	Enumerate(ctx context.Context, source string) (<-chan domain.RawItem, <-chan error)
}

// WatchableAdapter is an optional extension for adapters that can push
// change notifications. The local filesystem adapter implements it.
type WatchableAdapter interface {
	SourceAdapter

	// Watch emits a signal whenever the source's content changes.
	// The channel closes when ctx is cancelled.
	Watch(ctx context.Context, source string) (<-chan struct{}, error)
}
