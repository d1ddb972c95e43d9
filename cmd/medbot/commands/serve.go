package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/spf13/cobra"

	"github.com/medlink-hq/medbot-go/internal/bot"
	"github.com/medlink-hq/medbot-go/internal/docstore"
	"github.com/medlink-hq/medbot-go/internal/embedder"
	"github.com/medlink-hq/medbot-go/internal/generator"
	"github.com/medlink-hq/medbot-go/internal/logging"
	"github.com/medlink-hq/medbot-go/internal/prompt"
	"github.com/medlink-hq/medbot-go/internal/provider"
	"github.com/medlink-hq/medbot-go/internal/rag"
	"github.com/medlink-hq/medbot-go/internal/server"
	"github.com/medlink-hq/medbot-go/internal/tracing"
)

// codedTopK is the number of coded-diagnosis records retrieved per doctor query.
const codedTopK = 5

// docsTopK is the number of document chunks retrieved per landing query.
const docsTopK = 3

// NewServeCmd constructs the `medbot serve` command, which starts the HTTP
// server exposing the doctor and landing chat endpoints.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the medbot HTTP server",
		Long: `Start the medbot HTTP server.

The server exposes POST /doctor_chat for diagnosis-coding queries against the
coded corpus, POST /landing_chat for MedLink platform questions against the
document store, plus /ready and /metrics for operations.

Examples:
  medbot serve
  medbot serve --port 9090
  MODEL_PROVIDER=openai medbot serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			// Flags win; otherwise SERVER_HOST/SERVER_PORT apply, which the
			// YAML server section feeds through config.Load.
			host = resolveHost(cmd.Flags().Changed("host"), host)
			port = resolvePort(cmd.Flags().Changed("port"), port)

			log.Info("serve starting", slog.String("provider", os.Getenv("MODEL_PROVIDER")))

			// Langfuse tracing is opt-in, no-op if keys are absent.
			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled")
			} else {
				log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY not set"))
			}

			if err := embedder.Validate(log); err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			emb, err := embedder.NewFromEnv()
			if err != nil {
				return fmt.Errorf("serve: failed to initialise embedder: %w", err)
			}
			log.Info("embedder initialised", slog.String("provider", getEnvOrDefault("EMBEDDING_PROVIDER", "ollama")))

			vstore, err := openVectorStore(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer func() { _ = vstore.Close() }()

			docPath := getEnvOrDefault("DOCSTORE_PATH", docstore.DefaultPath)
			dstore, err := docstore.Open(docPath)
			if err != nil {
				return fmt.Errorf("serve: failed to open document store at %s: %w", docPath, err)
			}
			defer func() { _ = dstore.Close() }()
			log.Info("document store opened", slog.String("path", docPath))

			codedRetriever, err := rag.NewRetriever(emb, vstore, codedTopK)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			docRetriever, err := rag.NewRetriever(emb, dstore, docsTopK)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			chatModel, err := provider.NewFromEnv(ctx)
			if err != nil {
				return fmt.Errorf("serve: failed to initialise model provider: %w", err)
			}
			gen, err := generator.New(chatModel)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			doctor, err := bot.New(prompt.BotDoctor, codedRetriever, gen)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			landing, err := bot.New(prompt.BotLanding, docRetriever, gen)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			backend := getEnvOrDefault("VECTOR_BACKEND", string(rag.BackendPinecone))
			pingers := []server.Pinger{
				server.NewStorePinger(vstore, backend),
				server.NewDocStorePinger(dstore),
			}

			srv, err := server.New(doctor, landing, &server.Config{
				Host:           host,
				Port:           port,
				Logger:         log,
				Pingers:        pingers,
				APIKey:         os.Getenv("MEDBOT_API_KEY"),
				AllowedOrigins: allowedOriginsFromEnv(),
				RequestTimeout: requestTimeoutFromEnv(log),
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on")

	return cmd
}
