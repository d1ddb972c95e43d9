// Package tracing wires Langfuse observability into the eino generation
// calls made by the chat pipeline. Every Generate invocation (doctor and
// landing alike) is reported as a trace, tagged with the medbot service
// name and the running release, so prompt and completion quality can be
// inspected per deployment.
package tracing

import (
	"os"

	"github.com/cloudwego/eino-ext/callbacks/langfuse"
	"github.com/cloudwego/eino/callbacks"

	"github.com/medlink-hq/medbot-go/internal/version"
)

// defaultHost is used when LANGFUSE_HOST is unset (a local Langfuse
// container in development).
const defaultHost = "http://localhost:3000"

// Setup builds the Langfuse callback handler for the generation pipeline.
// Tracing is opt-in: it activates only when both LANGFUSE_PUBLIC_KEY and
// LANGFUSE_SECRET_KEY are set, and is silently disabled otherwise (nil
// handler, false). The returned flush function must run before process
// exit so buffered traces are delivered.
func Setup() (callbacks.Handler, func(), bool) {
	publicKey := os.Getenv("LANGFUSE_PUBLIC_KEY")
	secretKey := os.Getenv("LANGFUSE_SECRET_KEY")
	if publicKey == "" || secretKey == "" {
		return nil, nil, false
	}

	host := os.Getenv("LANGFUSE_HOST")
	if host == "" {
		host = defaultHost
	}

	handler, flusher := langfuse.NewLangfuseHandler(&langfuse.Config{
		Host:      host,
		PublicKey: publicKey,
		SecretKey: secretKey,
		Name:      "medbot",
		Release:   version.Version,
	})

	return handler, flusher, true
}
