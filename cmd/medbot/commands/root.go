// Package commands defines all Cobra CLI commands for the medbot binary.
package commands

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/medlink-hq/medbot-go/internal/audit"
	"github.com/medlink-hq/medbot-go/internal/config"
	"github.com/medlink-hq/medbot-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "medbot",
		Short: "MedLink chatbot backend: diagnosis coding and platform Q&A",
		Long: `Medbot is the retrieval-augmented chatbot backend for the MedLink platform.

It serves two bots over HTTP: a doctor-facing assistant that maps diagnosis
queries to ICD-11, Ayurveda, Siddha, and Unani codes, and a landing-page
assistant that answers questions about the MedLink platform itself.

Model provider is selected via the MODEL_PROVIDER environment variable
or a YAML config file (~/.medbot/config.yaml).
See 'medbot --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Load a local .env file if present. Real env vars win.
			_ = godotenv.Load()

			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.medbot/config.yaml)")

	root.AddCommand(
		NewServeCmd(),
		NewIngestCmd(),
		NewAugmentCmd(),
		NewIngestDocsCmd(),
		NewVersionCmd(),
	)

	return root
}
