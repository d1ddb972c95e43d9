package rag

import (
	"context"
	"fmt"

	"github.com/pinecone-io/go-pinecone/v4/pinecone"
	"google.golang.org/protobuf/types/known/structpb"
)

// PineconeConfig holds connection parameters for a Pinecone index.
type PineconeConfig struct {
	// APIKey is the Pinecone API credential.
	APIKey string

	// IndexName is the Pinecone index holding the coded-diagnosis corpus.
	IndexName string

	// Namespace is the optional index namespace. Empty means default.
	Namespace string
}

// PineconeStore implements VectorStore backed by a hosted Pinecone index.
// This is the default backend for the coded-diagnosis corpus.
type PineconeStore struct {
	// client is the control-plane Pinecone client.
	client *pinecone.Client

	// index is the data-plane connection to the resolved index host.
	index *pinecone.IndexConnection

	// indexName is kept for error messages.
	indexName string
}

// NewPineconeStore resolves the index host and opens a data-plane connection.
func NewPineconeStore(ctx context.Context, cfg *PineconeConfig) (*PineconeStore, error) {
	if cfg.APIKey == "" {
		return nil, WithClass(ClassConfig, fmt.Errorf("pinecone: API key is required"))
	}
	if cfg.IndexName == "" {
		return nil, WithClass(ClassConfig, fmt.Errorf("pinecone: index name is required"))
	}

	client, err := pinecone.NewClient(pinecone.NewClientParams{ApiKey: cfg.APIKey})
	if err != nil {
		return nil, WithClass(ClassStore, fmt.Errorf("pinecone: failed to create client: %w", err))
	}

	idx, err := client.DescribeIndex(ctx, cfg.IndexName)
	if err != nil {
		return nil, WithClass(ClassStore, fmt.Errorf("pinecone: failed to describe index %q: %w", cfg.IndexName, err))
	}

	conn, err := client.Index(pinecone.NewIndexConnParams{Host: idx.Host, Namespace: cfg.Namespace})
	if err != nil {
		return nil, WithClass(ClassStore, fmt.Errorf("pinecone: failed to connect to index %q: %w", cfg.IndexName, err))
	}

	return &PineconeStore{client: client, index: conn, indexName: cfg.IndexName}, nil
}

// Upsert inserts or overwrites records by ID.
func (s *PineconeStore) Upsert(ctx context.Context, records []Record) error {
	vectors := make([]*pinecone.Vector, 0, len(records))
	for _, rec := range records {
		md, err := metadataStruct(rec.Metadata)
		if err != nil {
			return WithClass(ClassStore, fmt.Errorf("pinecone: metadata for record %q: %w", rec.ID, err))
		}
		values := rec.Vector
		vectors = append(vectors, &pinecone.Vector{
			Id:       rec.ID,
			Values:   &values,
			Metadata: md,
		})
	}

	if _, err := s.index.UpsertVectors(ctx, vectors); err != nil {
		return WithClass(ClassStore, fmt.Errorf("pinecone: upsert failed: %w", err))
	}
	return nil
}

// UpdateMetadata overwrites the given metadata fields on a stored record.
// The record's vector is not touched.
func (s *PineconeStore) UpdateMetadata(ctx context.Context, id string, fields map[string]string) error {
	md, err := metadataStruct(fields)
	if err != nil {
		return WithClass(ClassStore, fmt.Errorf("pinecone: metadata for record %q: %w", id, err))
	}

	if err := s.index.UpdateVector(ctx, &pinecone.UpdateVectorRequest{Id: id, Metadata: md}); err != nil {
		return WithClass(ClassStore, fmt.Errorf("pinecone: update metadata for %q failed: %w", id, err))
	}
	return nil
}

// Query returns up to topK nearest records with their metadata.
func (s *PineconeStore) Query(ctx context.Context, vector []float32, topK int) ([]Record, error) {
	resp, err := s.index.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            uint32(topK), //nolint:gosec // topK is a small positive constant
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, WithClass(ClassStore, fmt.Errorf("pinecone: query failed: %w", err))
	}

	records := make([]Record, 0, len(resp.Matches))
	for _, match := range resp.Matches {
		if match.Vector == nil {
			continue
		}
		rec := Record{
			ID:       match.Vector.Id,
			Score:    match.Score,
			Metadata: make(map[string]string),
		}
		if match.Vector.Metadata != nil {
			for k, v := range match.Vector.Metadata.GetFields() {
				rec.Metadata[k] = v.GetStringValue()
			}
		}
		records = append(records, rec)
	}

	return records, nil
}

// Ping checks index reachability via a stats call.
func (s *PineconeStore) Ping(ctx context.Context) error {
	if _, err := s.index.DescribeIndexStats(ctx); err != nil {
		return fmt.Errorf("pinecone: index %q unreachable: %w", s.indexName, err)
	}
	return nil
}

// Close releases the data-plane connection.
func (s *PineconeStore) Close() error {
	return s.index.Close()
}

// metadataStruct converts a flat string metadata map to the protobuf struct
// form Pinecone expects.
func metadataStruct(fields map[string]string) (*pinecone.Metadata, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	raw := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		raw[k] = v
	}
	md, err := structpb.NewStruct(raw)
	if err != nil {
		return nil, err
	}
	return md, nil
}
