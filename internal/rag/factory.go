package rag

import (
	"context"
	"fmt"
)

// Backend identifies a remote vector store implementation.
type Backend string

const (
	// BackendPinecone selects the hosted Pinecone index (default).
	BackendPinecone Backend = "pinecone"
	// BackendQdrant selects a Qdrant collection.
	BackendQdrant Backend = "qdrant"
)

// StoreConfig selects and configures a remote vector store backend for the
// coded-diagnosis corpus.
type StoreConfig struct {
	// Backend names the implementation to use. Empty means pinecone.
	Backend Backend

	// Pinecone holds Pinecone parameters, used when Backend is pinecone.
	Pinecone PineconeConfig

	// Qdrant holds Qdrant parameters, used when Backend is qdrant.
	Qdrant QdrantConfig
}

// NewStore constructs the VectorStore selected by cfg.Backend.
func NewStore(ctx context.Context, cfg *StoreConfig) (VectorStore, error) {
	backend := cfg.Backend
	if backend == "" {
		backend = BackendPinecone
	}

	switch backend {
	case BackendPinecone:
		return NewPineconeStore(ctx, &cfg.Pinecone)
	case BackendQdrant:
		return NewQdrantStore(ctx, &cfg.Qdrant)
	default:
		return nil, WithClass(ClassConfig, fmt.Errorf("rag: unknown vector backend %q (expected pinecone or qdrant)", backend))
	}
}
