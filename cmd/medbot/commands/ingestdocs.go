package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/medlink-hq/medbot-go/internal/docstore"
	"github.com/medlink-hq/medbot-go/internal/embedder"
	"github.com/medlink-hq/medbot-go/internal/ingestion"
	"github.com/medlink-hq/medbot-go/internal/logging"
)

// NewIngestDocsCmd constructs the `medbot ingest-docs` command, which chunks
// a platform document and loads it into the local document store.
func NewIngestDocsCmd() *cobra.Command {
	var filePath string
	var chunkWords int

	cmd := &cobra.Command{
		Use:   "ingest-docs",
		Short: "Chunk a platform document into the landing-bot store",
		Long: `Chunk a plain-text platform document and load it into the local document
store that backs the landing-page bot.

The document is split on whitespace into fixed-size word chunks, each chunk is
embedded, and chunks are stored under deterministic IDs so re-running on an
updated document overwrites in place.

Examples:
  medbot ingest-docs --file docs/medlink_overview.txt
  medbot ingest-docs --file docs/medlink_overview.txt --chunk-size 150`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()

			if filePath == "" {
				return fmt.Errorf("ingest-docs: --file is required")
			}

			if err := embedder.Validate(log); err != nil {
				return fmt.Errorf("ingest-docs: %w", err)
			}
			emb, err := embedder.NewFromEnv()
			if err != nil {
				return fmt.Errorf("ingest-docs: failed to initialise embedder: %w", err)
			}

			docPath := getEnvOrDefault("DOCSTORE_PATH", docstore.DefaultPath)
			store, err := docstore.Open(docPath)
			if err != nil {
				return fmt.Errorf("ingest-docs: failed to open document store at %s: %w", docPath, err)
			}
			defer func() { _ = store.Close() }()

			pipeline, err := ingestion.NewPipeline(emb, store)
			if err != nil {
				return fmt.Errorf("ingest-docs: failed to create pipeline: %w", err)
			}

			data, err := os.ReadFile(filePath)
			if err != nil {
				return fmt.Errorf("ingest-docs: failed to read %s: %w", filePath, err)
			}

			log.Info("starting document ingestion",
				slog.String("file", filePath),
				slog.String("docstore", docPath),
				slog.Int("chunk_words", chunkWords),
			)

			n, err := pipeline.IngestDocument(ctx, string(data), chunkWords, func(msg string) {
				log.Info(msg)
			})
			if err != nil {
				return fmt.Errorf("ingest-docs: pipeline failed: %w", err)
			}

			log.Info("document ingestion complete", slog.Int("chunks", n))
			return nil
		},
	}

	cmd.Flags().StringVar(&filePath, "file", "", "Path to the plain-text platform document")
	cmd.Flags().IntVar(&chunkWords, "chunk-size", ingestion.DefaultChunkWords, "Chunk size in words")

	return cmd
}
