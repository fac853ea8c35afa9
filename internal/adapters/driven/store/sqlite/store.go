package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/tessera-search/tessera/internal/adapters/driven/store/sqlite/migrations"
	"github.com/tessera-search/tessera/internal/core/domain"
	"github.com/tessera-search/tessera/internal/core/ports/driven"
)

// provenanceColumns maps metadata keys that are denormalised into their own
// columns, so filters on them run as plain SQL.
var provenanceColumns = map[string]string{
	domain.MetaDocumentID: "document_id",
	domain.MetaSourceID:   "source_id",
	domain.MetaSourceType: "source_type",
}

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store is a SQLite-backed vector store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.tessera/data/index.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".tessera", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "index.db")

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// Add writes records into a collection inside a single transaction.
// Records whose ID already exists in the collection are replaced.
func (s *Store) Add(ctx context.Context, collection string, records []domain.StorageRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (collection, id, document, embedding, document_id, source_id, source_type, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			document = excluded.document,
			embedding = excluded.embedding,
			document_id = excluded.document_id,
			source_id = excluded.source_id,
			source_type = excluded.source_type,
			metadata = excluded.metadata
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		metadataJSON, err := json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling metadata: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, collection, rec.ID, rec.Document,
			float32SliceToBytes(rec.Embedding),
			stringMeta(rec.Metadata, domain.MetaDocumentID),
			stringMeta(rec.Metadata, domain.MetaSourceID),
			stringMeta(rec.Metadata, domain.MetaSourceType),
			string(metadataJSON)); err != nil {
			return fmt.Errorf("saving record %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Query ranks a collection against the query payload and returns up to
// nResults hits ordered by ascending distance. Vector queries use cosine
// distance; text-only queries use a term-overlap score over the documents.
func (s *Store) Query(
	ctx context.Context,
	collection string,
	query domain.TextEncoding,
	nResults int,
) ([]domain.Hit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document, embedding, metadata
		FROM records WHERE collection = ?
	`, collection)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var hits []domain.Hit //nolint:prealloc // size unknown from query
	for rows.Next() {
		var (
			id, document  string
			embeddingBlob []byte
			metadataJSON  string
		)
		if err := rows.Scan(&id, &document, &embeddingBlob, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}

		var distance float64
		switch {
		case len(query.Embedding) > 0:
			embedding := bytesToFloat32Slice(embeddingBlob)
			if len(embedding) != len(query.Embedding) {
				continue
			}
			distance = cosineDistance(query.Embedding, embedding)
		case query.Text != "":
			distance = lexicalDistance(query.Text, document)
		default:
			continue
		}

		var metadata map[string]any
		if metadataJSON != "" {
			if err := json.Unmarshal([]byte(metadataJSON), &metadata); err != nil {
				return nil, fmt.Errorf("unmarshaling metadata: %w", err)
			}
		}

		d := distance
		hits = append(hits, domain.Hit{ID: id, Distance: &d, Document: document, Metadata: metadata})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return *hits[i].Distance < *hits[j].Distance
	})
	if nResults > 0 && len(hits) > nResults {
		hits = hits[:nResults]
	}
	return hits, nil
}

// ListDocumentIDs returns the distinct source document ids in a collection.
func (s *Store) ListDocumentIDs(ctx context.Context, collection string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT document_id FROM records
		WHERE collection = ? AND document_id != ''
	`, collection)
	if err != nil {
		return nil, fmt.Errorf("querying document ids: %w", err)
	}
	defer rows.Close()

	var ids []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning document id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating document ids: %w", err)
	}
	return ids, nil
}

// Delete removes records whose metadata matches every filter entry.
// Provenance keys filter on their columns; any other key filters on the
// metadata JSON. An empty filter clears the collection.
func (s *Store) Delete(ctx context.Context, collection string, filter map[string]string) error {
	where := []string{"collection = ?"}
	args := []any{collection}

	keys := make([]string, 0, len(filter))
	for key := range filter {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if column, ok := provenanceColumns[key]; ok {
			where = append(where, column+" = ?")
		} else {
			where = append(where, "json_extract(metadata, '$.'||?) = ?")
			args = append(args, key)
		}
		args = append(args, filter[key])
	}

	query := "DELETE FROM records WHERE " + strings.Join(where, " AND ")
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting records: %w", err)
	}
	return nil
}

// Count returns the record count per collection.
func (s *Store) Count(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT collection, COUNT(*) FROM records GROUP BY collection
	`)
	if err != nil {
		return nil, fmt.Errorf("counting records: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var collection string
		var count int
		if err := rows.Scan(&collection, &count); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts[collection] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating counts: %w", err)
	}
	return counts, nil
}

// Collections returns the known collection names in sorted order.
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT collection FROM records ORDER BY collection
	`)
	if err != nil {
		return nil, fmt.Errorf("querying collections: %w", err)
	}
	defer rows.Close()

	var names []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning collection: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating collections: %w", err)
	}
	return names, nil
}

// ==================== Helper Functions ====================

// stringMeta extracts a string metadata value, empty when absent.
func stringMeta(metadata map[string]any, key string) string {
	value, _ := metadata[key].(string)
	return value
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// cosineDistance is 1 - cosine similarity, so smaller means more similar.
// Zero vectors are maximally distant.
func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

// lexicalDistance scores a document against a text query by the fraction of
// query terms present in the document, on the same lower-is-closer scale as
// cosine distance.
func lexicalDistance(query, document string) float64 {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return 1
	}
	doc := strings.ToLower(document)

	matched := 0
	for _, term := range terms {
		if strings.Contains(doc, term) {
			matched++
		}
	}
	return 1 - float64(matched)/float64(len(terms))
}
