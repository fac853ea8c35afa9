package domain

// Provenance metadata keys injected by the normaliser into every stored
// record. These keys are authoritative: model-supplied metadata with the
// same names is overwritten.
const (
	// MetaSourceType records the SourceKind label (e.g. "LOCAL").
	MetaSourceType = "source_type"

	// MetaSourceID records the original source string supplied by the caller.
	MetaSourceID = "source_id"

	// MetaDocumentID records the provisional identifier of the raw item.
	MetaDocumentID = "document_id"
)

// StorageRecord is the normalised unit written to the vector store.
type StorageRecord struct {
	// ID is the unique record identifier within a collection.
	ID string

	// Document is the human-readable text indexed for this record.
	Document string

	// Embedding is the vector representation, or nil for text-only records.
	Embedding []float32

	// Metadata holds model-supplied keys merged with provenance keys.
	Metadata map[string]any
}

// Hit is one raw similarity-search result from the vector store.
type Hit struct {
	// ID is the matched record's identifier.
	ID string

	// Distance is the cosine distance to the query (lower is closer).
	// Nil marks an unrankable hit; such hits are dropped during filtering.
	Distance *float64

	// Document is the matched record's text.
	Document string

	// Metadata is the matched record's metadata.
	Metadata map[string]any
}

// MediaData is one query result unit returned to callers.
type MediaData struct {
	// Document is the retrieved context text.
	Document string `json:"document"`

	// Metadata carries the stored record's metadata, provenance included.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// QueryResult is the final answer for a natural-language query.
type QueryResult struct {
	// LLMResponse is the generated answer.
	LLMResponse string `json:"llm_response"`

	// Documents holds the retrieved context per media kind, in rank order.
	Documents map[MediaKind][]MediaData `json:"documents,omitempty"`
}
