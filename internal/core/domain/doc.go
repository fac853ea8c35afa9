// Package domain defines the core business entities for Tessera.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - MediaKind / SourceKind: The two classification axes of the pipeline
//   - RawItem: One enumerated unit from a source adapter
//   - EncodingResult: The raw output of an embedding-model invocation
//   - StorageRecord: The normalised unit written to the vector store
//   - MediaData / QueryResult: Query-path result types
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
