package rag

import (
	"context"
	"fmt"
	"strings"
)

// DefaultRetriever implements the Retriever interface by combining an Embedder
// and a VectorStore. It embeds the query at retrieval time and delegates
// similarity search to the store. The result count is fixed per corpus at
// construction time: 5 for the coded-diagnosis corpus, 3 for document chunks.
type DefaultRetriever struct {
	// embedder converts query text to a dense vector.
	embedder Embedder

	// store performs the vector similarity search.
	store VectorStore

	// topK is the number of results returned per retrieval.
	topK int
}

// NewRetriever constructs a DefaultRetriever over the given Embedder and
// VectorStore, returning topK records per query.
func NewRetriever(embedder Embedder, store VectorStore, topK int) (*DefaultRetriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("rag: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("rag: store must not be nil")
	}
	if topK <= 0 {
		topK = 5
	}
	return &DefaultRetriever{
		embedder: embedder,
		store:    store,
		topK:     topK,
	}, nil
}

// Retrieve embeds the query and returns its nearest records. Empty queries
// are rejected before the encoder is called. Store failures are surfaced
// with the store class. This layer never retries; retry policy belongs to
// the request and ingestion boundaries.
func (r *DefaultRetriever) Retrieve(ctx context.Context, query string) ([]Record, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyInput
	}

	embeddings, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("rag: embedding query failed: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, WithClass(ClassEncoding, fmt.Errorf("rag: embedder returned no vector for query"))
	}

	records, err := r.store.Query(ctx, embeddings[0], r.topK)
	if err != nil {
		return nil, fmt.Errorf("rag: vector search failed: %w", err)
	}

	return records, nil
}
