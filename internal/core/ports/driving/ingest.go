package driving

import "context"

// Ingestor coordinates ingestion of a source into the vector store.
type Ingestor interface {
	// Ingest resolves the source string, enumerates its items and indexes
	// them. Per-item failures are logged and counted, not fatal; the call
	// fails only on source resolution or enumeration errors.
	Ingest(ctx context.Context, source string) (*IngestStats, error)
}

// IngestStats summarises one ingestion run. Per-item detail is available
// in the logs only.
type IngestStats struct {
	// Processed is the number of (item, model) units written to the store.
	Processed int

	// Skipped is the number of units skipped by dedup or classification.
	Skipped int

	// Failed is the number of units that errored and were skipped.
	Failed int
}
