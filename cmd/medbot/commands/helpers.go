package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/medlink-hq/medbot-go/internal/embedder"
	"github.com/medlink-hq/medbot-go/internal/rag"
)

// getEnvOrDefault returns the env var value or a fallback when unset.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the env var parsed as int, or a fallback when unset or
// unparseable.
func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// openVectorStore connects to the remote vector store for the coded-diagnosis
// corpus, selected by VECTOR_BACKEND (pinecone or qdrant).
func openVectorStore(ctx context.Context, log *slog.Logger) (rag.VectorStore, error) {
	backend := rag.Backend(getEnvOrDefault("VECTOR_BACKEND", string(rag.BackendPinecone)))

	embBackend := getEnvOrDefault("EMBEDDING_PROVIDER", "ollama")
	vectorSize := uint64(embedder.DefaultDimensions(embBackend)) //nolint:gosec // dimensions are bounded

	store, err := rag.NewStore(ctx, &rag.StoreConfig{
		Backend: backend,
		Pinecone: rag.PineconeConfig{
			APIKey:    os.Getenv("PINECONE_API_KEY"),
			IndexName: getEnvOrDefault("PINECONE_INDEX", "medbot-codes"),
			Namespace: os.Getenv("PINECONE_NAMESPACE"),
		},
		Qdrant: rag.QdrantConfig{
			Host:       getEnvOrDefault("QDRANT_HOST", "localhost"),
			Port:       getEnvInt("QDRANT_PORT", 6334),
			Collection: getEnvOrDefault("QDRANT_COLLECTION", "medbot-codes"),
			VectorSize: vectorSize,
			APIKey:     os.Getenv("QDRANT_API_KEY"),
			UseTLS:     os.Getenv("QDRANT_TLS") == "true",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s vector store: %w", backend, err)
	}

	log.Info("vector store ready", slog.String("backend", string(backend)))
	return store, nil
}

// resolveHost picks the bind address: an explicit --host flag wins, then
// SERVER_HOST (settable via the YAML server.host key), then the flag default.
func resolveHost(flagChanged bool, flagValue string) string {
	if flagChanged {
		return flagValue
	}
	return getEnvOrDefault("SERVER_HOST", flagValue)
}

// resolvePort picks the listen port: an explicit --port flag wins, then
// SERVER_PORT (settable via the YAML server.port key), then the flag default.
func resolvePort(flagChanged bool, flagValue int) int {
	if flagChanged {
		return flagValue
	}
	return getEnvInt("SERVER_PORT", flagValue)
}

// allowedOriginsFromEnv splits the CORS_ALLOWED_ORIGINS list into origins.
func allowedOriginsFromEnv() []string {
	raw := os.Getenv("CORS_ALLOWED_ORIGINS")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// requestTimeoutFromEnv parses REQUEST_TIMEOUT as a duration. Zero means the
// server default applies.
func requestTimeoutFromEnv(log *slog.Logger) time.Duration {
	raw := os.Getenv("REQUEST_TIMEOUT")
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Warn("ignoring invalid REQUEST_TIMEOUT", slog.String("value", raw))
		return 0
	}
	return d
}
