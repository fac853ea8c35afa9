package domain

// SourceKind classifies where an ingestion source string points.
// It determines which source adapter enumerates the source and which
// provenance label is recorded on stored records.
type SourceKind string

const (
	// SourceLocal is a path on the local filesystem.
	SourceLocal SourceKind = "LOCAL"

	// SourceS3 is an s3://bucket[/key] object storage URI.
	SourceS3 SourceKind = "S3"

	// SourceYouTube is a youtube:channel-id streaming platform reference.
	SourceYouTube SourceKind = "YOUTUBE"
)

// String returns the provenance label for the source kind.
func (k SourceKind) String() string {
	return string(k)
}

// RawItem is one enumerated unit from a source adapter: a provisional
// document identifier (file path, S3 URI, video id) plus the raw media,
// either as a local path or as in-memory bytes.
type RawItem struct {
	// DocumentID is the provisional identifier used for classification,
	// deduplication and provenance.
	DocumentID string

	// Path is a local filesystem path holding the item's content.
	Path string

	// Bytes is the item's content when the adapter loads it directly.
	Bytes []byte

	// Transient marks Path as a temporary download owned by the pipeline.
	// The consumer removes the file once the item has been processed.
	Transient bool
}
