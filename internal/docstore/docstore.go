// Package docstore provides a SQLite-backed local vector store for the landing
// bot's document chunks. Vectors and metadata survive restarts, so documents
// are ingested once and served across deployments of the same host. Similarity
// search is a brute-force cosine scan, which is fine at document-chunk scale.
package docstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	_ "modernc.org/sqlite" // register "sqlite" driver

	"github.com/medlink-hq/medbot-go/internal/rag"
)

// DefaultPath is where the document store lives when no path is configured.
const DefaultPath = "./medbot-docs.db"

// Store is a rag.VectorStore backed by a local SQLite database.
type Store struct {
	// db is the underlying database connection pool.
	db *sql.DB
}

// Open opens (or creates) a Store at the given path and runs the schema
// migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*Store, error) {
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("docstore: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *Store) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS records (
    id        TEXT PRIMARY KEY,
    vector    BLOB NOT NULL,
    metadata  TEXT NOT NULL
);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("docstore: migrate: %w", err)
	}
	return nil
}

// Upsert inserts or overwrites records by ID.
func (s *Store) Upsert(ctx context.Context, records []rag.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rag.WithClass(rag.ClassStore, fmt.Errorf("docstore: begin upsert: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	const q = `INSERT INTO records (id, vector, metadata) VALUES (?, ?, ?)
	           ON CONFLICT(id) DO UPDATE SET vector = excluded.vector, metadata = excluded.metadata`
	for _, rec := range records {
		md, err := json.Marshal(rec.Metadata)
		if err != nil {
			return rag.WithClass(rag.ClassStore, fmt.Errorf("docstore: encode metadata for %q: %w", rec.ID, err))
		}
		if _, err := tx.ExecContext(ctx, q, rec.ID, encodeVector(rec.Vector), string(md)); err != nil {
			return rag.WithClass(rag.ClassStore, fmt.Errorf("docstore: upsert %q: %w", rec.ID, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return rag.WithClass(rag.ClassStore, fmt.Errorf("docstore: commit upsert: %w", err))
	}
	return nil
}

// UpdateMetadata merges the given fields into an existing record's metadata.
// The record's vector is not touched.
func (s *Store) UpdateMetadata(ctx context.Context, id string, fields map[string]string) error {
	const sel = `SELECT metadata FROM records WHERE id = ?`
	var raw string
	if err := s.db.QueryRowContext(ctx, sel, id).Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return rag.WithClass(rag.ClassStore, fmt.Errorf("docstore: no record with id %q", id))
		}
		return rag.WithClass(rag.ClassStore, fmt.Errorf("docstore: read metadata for %q: %w", id, err))
	}

	metadata := make(map[string]string)
	if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
		return rag.WithClass(rag.ClassStore, fmt.Errorf("docstore: decode metadata for %q: %w", id, err))
	}
	for k, v := range fields {
		metadata[k] = v
	}

	merged, err := json.Marshal(metadata)
	if err != nil {
		return rag.WithClass(rag.ClassStore, fmt.Errorf("docstore: encode metadata for %q: %w", id, err))
	}

	const upd = `UPDATE records SET metadata = ? WHERE id = ?`
	if _, err := s.db.ExecContext(ctx, upd, string(merged), id); err != nil {
		return rag.WithClass(rag.ClassStore, fmt.Errorf("docstore: update metadata for %q: %w", id, err))
	}
	return nil
}

// Query scans all stored records, ranks them by cosine similarity against
// vector, and returns the topK best matches. An empty store returns
// rag.ErrStoreNotReady so callers can distinguish "not ingested yet" from
// "no relevant documents".
func (s *Store) Query(ctx context.Context, vector []float32, topK int) ([]rag.Record, error) {
	const q = `SELECT id, vector, metadata FROM records`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, rag.WithClass(rag.ClassStore, fmt.Errorf("docstore: query: %w", err))
	}
	defer rows.Close()

	var scored []rag.Record
	for rows.Next() {
		var id, raw string
		var blob []byte
		if err := rows.Scan(&id, &blob, &raw); err != nil {
			return nil, rag.WithClass(rag.ClassStore, fmt.Errorf("docstore: query scan: %w", err))
		}

		metadata := make(map[string]string)
		if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
			return nil, rag.WithClass(rag.ClassStore, fmt.Errorf("docstore: decode metadata for %q: %w", id, err))
		}

		scored = append(scored, rag.Record{
			ID:       id,
			Metadata: metadata,
			Score:    cosineSimilarity(vector, decodeVector(blob)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, rag.WithClass(rag.ClassStore, fmt.Errorf("docstore: query rows: %w", err))
	}

	if len(scored) == 0 {
		return nil, rag.ErrStoreNotReady
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

// Count returns the number of stored records. Used by the readiness probe.
func (s *Store) Count(ctx context.Context) (int, error) {
	const q = `SELECT COUNT(*) FROM records`
	var n int
	if err := s.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("docstore: count: %w", err)
	}
	return n, nil
}

// Ping checks that the database file is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("docstore: ping: %w", err)
	}
	return nil
}

// Close releases the database connection pool.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("docstore: close: %w", err)
	}
	return nil
}

// encodeVector serializes a vector as little-endian float32 bits.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

// decodeVector is the inverse of encodeVector.
func decodeVector(buf []byte) []float32 {
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return vec
}

// cosineSimilarity computes the cosine of the angle between a and b.
// Mismatched lengths or zero vectors score 0.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
