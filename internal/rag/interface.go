// Package rag defines the interfaces for the retrieval-augmented generation
// pipeline: vector storage, similarity search, and embedding. Concrete
// implementations (Pinecone, Qdrant, the local document store) satisfy these
// interfaces so the bot layer never depends on a specific backend.
package rag

import (
	"context"
)

// Record is the persisted unit in a vector store: a unique ID, an embedding
// vector, and a flat string metadata mapping (diagnosis codes and titles, or
// the raw text of a document chunk).
type Record struct {
	// ID is the unique identifier for this record. IDs are deterministic
	// across ingestion runs so re-ingestion overwrites instead of duplicating.
	ID string

	// Vector is the embedding produced for this record at ingestion time.
	// Empty on records returned from a metadata-only query.
	Vector []float32

	// Metadata holds the bot-specific field schema. Missing source values are
	// stored as an explicit sentinel, never omitted, so prompt rendering
	// downstream needs no null handling.
	Metadata map[string]string

	// Score is the similarity score assigned during retrieval. It is an
	// opaque ranking signal; callers must not assume a numeric range.
	Score float32
}

// VectorStore is the interface for persisting records and answering
// nearest-neighbour queries. Implementations must be safe to call from
// multiple goroutines.
type VectorStore interface {
	// Upsert inserts or overwrites a batch of records by ID.
	Upsert(ctx context.Context, records []Record) error

	// UpdateMetadata overwrites the given metadata fields on an existing
	// record, leaving its vector untouched.
	UpdateMetadata(ctx context.Context, id string, fields map[string]string) error

	// Query returns up to topK records nearest to vector, ranked by
	// non-increasing similarity. Ties are broken in store-internal order.
	Query(ctx context.Context, vector []float32, topK int) ([]Record, error)

	// Ping checks whether the store is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

// Embedder converts text into dense vector embeddings. Deterministic for a
// fixed model version. Implementations must be safe to call from multiple
// goroutines, and must reject empty or oversized input with an
// encoding-classified error rather than truncating silently.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Retriever returns the most relevant stored records for a query string.
// Each call re-encodes and re-queries; there is no caching between calls.
type Retriever interface {
	// Retrieve embeds query and returns its nearest records, bounded by the
	// retriever's configured result count.
	Retrieve(ctx context.Context, query string) ([]Record, error)
}
