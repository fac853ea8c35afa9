// Package sqlite provides a SQLite-backed implementation of the
// driven.VectorStore port.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO, enabling easy cross-compilation. Embedding vectors are
// stored as little-endian float32 blobs; similarity search loads the
// candidate collection and ranks it by cosine distance in process, which is
// adequate for personal-index corpus sizes. Text-only queries fall back to a
// term-overlap score over the stored documents.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql
// files. Provenance metadata (document_id, source_id, source_type) is
// denormalised into columns so deduplication and deletion run as plain SQL.
//
// # Data Location
//
// By default, the database is stored at ~/.tessera/data/index.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode.
package sqlite
