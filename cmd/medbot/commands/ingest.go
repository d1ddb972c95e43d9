package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/medlink-hq/medbot-go/internal/embedder"
	"github.com/medlink-hq/medbot-go/internal/ingestion"
	"github.com/medlink-hq/medbot-go/internal/logging"
)

// NewIngestCmd constructs the `medbot ingest` command, which loads the coded
// diagnosis CSV into the remote vector store.
func NewIngestCmd() *cobra.Command {
	var csvPath string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load the coded diagnosis CSV into the vector store",
		Long: `Load the coded diagnosis corpus into the remote vector store.

Each CSV row carries an ICD-11 code and title plus the corresponding Ayurveda,
Siddha, and Unani codes. The ICD-11 title is embedded; all five columns are
stored as metadata. Missing cells are stored as the sentinel "Na" so prompt
rendering never sees an absent field. Record IDs are the row index, so
re-running ingest on the same file overwrites rather than duplicates.

Required environment variables:
  VECTOR_BACKEND       pinecone (default) or qdrant
  PINECONE_API_KEY     Pinecone credential (pinecone backend)
  PINECONE_INDEX       Pinecone index name (default: medbot-codes)
  QDRANT_HOST/PORT     Qdrant endpoint (qdrant backend)
  EMBEDDING_PROVIDER   ollama (default), openai, azure

Examples:
  medbot ingest --csv data/icd11_codes.csv
  VECTOR_BACKEND=qdrant medbot ingest --csv data/icd11_codes.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()

			if csvPath == "" {
				return fmt.Errorf("ingest: --csv is required")
			}

			if err := embedder.Validate(log); err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			emb, err := embedder.NewFromEnv()
			if err != nil {
				return fmt.Errorf("ingest: failed to initialise embedder: %w", err)
			}

			store, err := openVectorStore(ctx, log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer func() { _ = store.Close() }()

			pipeline, err := ingestion.NewPipeline(emb, store)
			if err != nil {
				return fmt.Errorf("ingest: failed to create pipeline: %w", err)
			}

			f, err := os.Open(csvPath)
			if err != nil {
				return fmt.Errorf("ingest: failed to open %s: %w", csvPath, err)
			}
			defer func() { _ = f.Close() }()

			log.Info("starting coded ingestion", slog.String("csv", csvPath))

			n, err := pipeline.LoadCoded(ctx, f, func(msg string) {
				log.Info(msg)
			})
			if err != nil {
				return fmt.Errorf("ingest: pipeline failed: %w", err)
			}

			log.Info("ingestion complete", slog.Int("records", n))
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Path to the coded diagnosis CSV file")

	return cmd
}
