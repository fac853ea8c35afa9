package domain

// EncodingResult is the output of one embedding-model invocation on one raw
// media item. A model may produce zero or more sub-items: a direct embedding
// model yields one vector, a transcription model yields one document per
// segment, a captioning model yields a single caption document.
//
// All fields are parallel per sub-item. Fields that are non-empty must agree
// on length; the normaliser rejects mismatches.
type EncodingResult struct {
	// Embeddings holds one fixed-length vector per sub-item, or none when
	// the model produces text only.
	Embeddings [][]float32

	// Documents holds one human-readable string per sub-item (transcript
	// segment, caption). When empty, the normaliser falls back to the
	// item's document identifier.
	Documents []string

	// IDs holds externally assigned identifiers, one per sub-item. When
	// empty, the normaliser synthesises unique identifiers.
	IDs []string

	// Metadata holds per-sub-item key/value maps, or none.
	Metadata []map[string]any
}

// TextEncoding is the output of encoding a query string. Embedding-based
// models produce a vector; caption/transcription-style models fall back to
// the raw text for a lexical query. The two are mutually exclusive.
type TextEncoding struct {
	// Embedding is the query vector, when the model embeds text.
	Embedding []float32

	// Text is the lexical query fallback, when the model does not.
	Text string
}
