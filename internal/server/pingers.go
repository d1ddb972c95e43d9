package server

import (
	"context"
	"fmt"

	"github.com/medlink-hq/medbot-go/internal/docstore"
	"github.com/medlink-hq/medbot-go/internal/rag"
)

// StorePinger probes a remote vector store via its Ping method. It satisfies
// the Pinger interface and is used by GET /ready.
type StorePinger struct {
	// store is the vector store to probe.
	store rag.VectorStore
	// name identifies the backend in readiness responses (e.g. "pinecone").
	name string
}

// NewStorePinger constructs a StorePinger for the given store and label.
func NewStorePinger(store rag.VectorStore, name string) *StorePinger {
	return &StorePinger{store: store, name: name}
}

// Name returns the dependency label used in readiness responses.
func (p *StorePinger) Name() string { return p.name }

// Ping delegates to the store's own reachability check.
func (p *StorePinger) Ping(ctx context.Context) error {
	return p.store.Ping(ctx)
}

// DocStorePinger probes the local document store. Readiness requires not
// just a reachable database but at least one ingested chunk, so the landing
// bot is only advertised once it can actually answer.
type DocStorePinger struct {
	// store is the document store to probe.
	store *docstore.Store
}

// NewDocStorePinger constructs a DocStorePinger for the given store.
func NewDocStorePinger(store *docstore.Store) *DocStorePinger {
	return &DocStorePinger{store: store}
}

// Name returns the dependency label used in readiness responses.
func (p *DocStorePinger) Name() string { return "docstore" }

// Ping checks database reachability and that at least one chunk is ingested.
func (p *DocStorePinger) Ping(ctx context.Context) error {
	if err := p.store.Ping(ctx); err != nil {
		return err
	}
	n, err := p.store.Count(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no documents ingested")
	}
	return nil
}
