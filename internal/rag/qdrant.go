package rag

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/qdrant/go-client/qdrant"
)

// QdrantConfig holds connection parameters for a Qdrant vector store instance.
type QdrantConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// Collection is the Qdrant collection name to use.
	Collection string

	// VectorSize is the dimensionality of the embeddings stored in this collection.
	VectorSize uint64

	// APIKey is the optional Qdrant API key for authenticated clusters.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool
}

// QdrantStore implements VectorStore backed by a Qdrant collection. It is the
// alternate remote backend for the coded-diagnosis corpus; record IDs must be
// decimal row indexes (Qdrant point IDs are numeric or UUID).
type QdrantStore struct {
	// client is the underlying Qdrant gRPC client.
	client *qdrant.Client

	// cfg holds the resolved configuration for this store.
	cfg *QdrantConfig
}

// NewQdrantStore creates a QdrantStore, ensuring the target collection exists
// (creating it with cosine distance if necessary).
func NewQdrantStore(ctx context.Context, cfg *QdrantConfig) (*QdrantStore, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	if cfg.Collection == "" {
		return nil, WithClass(ClassConfig, fmt.Errorf("qdrant: collection name is required"))
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, WithClass(ClassStore, fmt.Errorf("qdrant: failed to create client: %w", err))
	}

	store := &QdrantStore{client: client, cfg: cfg}
	if err := store.ensureCollection(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// ensureCollection creates the collection if it does not already exist.
func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.cfg.Collection)
	if err != nil {
		return WithClass(ClassStore, fmt.Errorf("qdrant: failed to check collection existence: %w", err))
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.cfg.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.cfg.VectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return WithClass(ClassStore, fmt.Errorf("qdrant: failed to create collection %q: %w", s.cfg.Collection, err))
	}

	return nil
}

// Upsert inserts or overwrites records by ID.
func (s *QdrantStore) Upsert(ctx context.Context, records []Record) error {
	points := make([]*qdrant.PointStruct, 0, len(records))
	for _, rec := range records {
		id, err := pointID(rec.ID)
		if err != nil {
			return err
		}
		payload := make(map[string]interface{}, len(rec.Metadata))
		for k, v := range rec.Metadata {
			payload[k] = v
		}
		points = append(points, &qdrant.PointStruct{
			Id:      id,
			Vectors: qdrant.NewVectors(rec.Vector...),
			Payload: qdrant.NewValueMap(payload),
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.cfg.Collection,
		Points:         points,
	})
	if err != nil {
		return WithClass(ClassStore, fmt.Errorf("qdrant: upsert failed: %w", err))
	}

	return nil
}

// UpdateMetadata overwrites the given payload fields on an existing point.
// The point's vector is not touched.
func (s *QdrantStore) UpdateMetadata(ctx context.Context, id string, fields map[string]string) error {
	pid, err := pointID(id)
	if err != nil {
		return err
	}
	payload := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		payload[k] = v
	}

	_, err = s.client.SetPayload(ctx, &qdrant.SetPayloadPoints{
		CollectionName: s.cfg.Collection,
		Payload:        qdrant.NewValueMap(payload),
		PointsSelector: qdrant.NewPointsSelector(pid),
	})
	if err != nil {
		return WithClass(ClassStore, fmt.Errorf("qdrant: set payload for %q failed: %w", id, err))
	}
	return nil
}

// Query performs a cosine similarity search and returns the top-k results.
func (s *QdrantStore) Query(ctx context.Context, vector []float32, topK int) ([]Record, error) {
	limit := uint64(topK) //nolint:gosec // topK is a small positive constant
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.cfg.Collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, WithClass(ClassStore, fmt.Errorf("qdrant: query failed: %w", err))
	}

	records := make([]Record, 0, len(results))
	for _, r := range results {
		rec := Record{
			ID:       strconv.FormatUint(r.Id.GetNum(), 10),
			Score:    r.Score,
			Metadata: make(map[string]string),
		}
		for k, v := range r.Payload {
			rec.Metadata[k] = v.GetStringValue()
		}
		records = append(records, rec)
	}

	return records, nil
}

// Ping calls the Qdrant HealthCheck RPC.
func (s *QdrantStore) Ping(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant: health check failed: %w", err)
	}
	return nil
}

// Close closes the underlying Qdrant gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// pointID converts a decimal record ID to a numeric Qdrant point ID.
func pointID(id string) (*qdrant.PointId, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return nil, WithClass(ClassStore, fmt.Errorf("qdrant: record ID %q is not numeric: %w", id, err))
	}
	return qdrant.NewIDNum(n), nil
}
