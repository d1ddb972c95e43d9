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

// NewAugmentCmd constructs the `medbot augment` command, which merges the
// long-definition columns into already-ingested coded records.
func NewAugmentCmd() *cobra.Command {
	var csvPath string

	cmd := &cobra.Command{
		Use:   "augment",
		Short: "Merge long definitions into existing coded records",
		Long: `Merge the Ayurveda, Siddha, and Unani long-definition columns into records
already loaded by 'medbot ingest'.

Only metadata is touched: vectors are never re-embedded. Rows are matched to
records by row index, so the augmentation CSV must be ordered the same way as
the original ingest CSV. Missing cells are stored as "Not Available".

Examples:
  medbot augment --csv data/icd11_definitions.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()

			if csvPath == "" {
				return fmt.Errorf("augment: --csv is required")
			}

			emb, err := embedder.NewFromEnv()
			if err != nil {
				return fmt.Errorf("augment: failed to initialise embedder: %w", err)
			}

			store, err := openVectorStore(ctx, log)
			if err != nil {
				return fmt.Errorf("augment: %w", err)
			}
			defer func() { _ = store.Close() }()

			pipeline, err := ingestion.NewPipeline(emb, store)
			if err != nil {
				return fmt.Errorf("augment: failed to create pipeline: %w", err)
			}

			f, err := os.Open(csvPath)
			if err != nil {
				return fmt.Errorf("augment: failed to open %s: %w", csvPath, err)
			}
			defer func() { _ = f.Close() }()

			log.Info("starting metadata augmentation", slog.String("csv", csvPath))

			n, err := pipeline.AugmentMetadata(ctx, f, func(msg string) {
				log.Info(msg)
			})
			if err != nil {
				return fmt.Errorf("augment: pipeline failed: %w", err)
			}

			log.Info("augmentation complete", slog.Int("records", n))
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Path to the long-definition CSV file")

	return cmd
}
