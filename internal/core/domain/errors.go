package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrUnrecognizedSource indicates a source string matched no source kind.
	// Fatal to the ingestion call; no partial work is attempted.
	ErrUnrecognizedSource = errors.New("unrecognized source")

	// ErrInconsistentEncoding indicates an encoding result's parallel fields
	// have mismatched lengths. Fatal to that item/model unit only.
	ErrInconsistentEncoding = errors.New("inconsistent encoding result")

	// ErrMediaLoad indicates raw media could not be read or decoded.
	// Logged and skipped; ingestion continues.
	ErrMediaLoad = errors.New("media load failed")

	// ErrUnsupportedMedia indicates a model was asked to encode a media kind
	// outside its declared supported set. The registry prevents this at
	// configuration time; at runtime it is a configuration defect.
	ErrUnsupportedMedia = errors.New("unsupported media kind")

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrLLMUnavailable indicates no LLM service is configured.
	// Answer generation is disabled; retrieval still works.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)
