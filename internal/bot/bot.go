// Package bot wires retrieval, prompt composition, and generation into the
// answer pipeline shared by both chatbots. The doctor and landing bots differ
// only in their bot kind, retriever, and result count; everything else is
// this one pipeline.
package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/medlink-hq/medbot-go/internal/logging"
	"github.com/medlink-hq/medbot-go/internal/prompt"
	"github.com/medlink-hq/medbot-go/internal/rag"
)

// answerGenerator is the slice of the generator the pipeline needs.
type answerGenerator interface {
	Generate(ctx context.Context, p prompt.Prompt) (string, error)
}

// Pipeline answers queries for one bot: retrieve context, compose the
// prompt, generate the answer. Safe for concurrent use.
type Pipeline struct {
	// kind selects the bot's instruction during prompt composition.
	kind prompt.BotKind

	// retriever fetches the bot's corpus context.
	retriever rag.Retriever

	// generator produces the final answer.
	generator answerGenerator
}

// New constructs a Pipeline for the given bot kind.
func New(kind prompt.BotKind, retriever rag.Retriever, generator answerGenerator) (*Pipeline, error) {
	if kind != prompt.BotDoctor && kind != prompt.BotLanding {
		return nil, fmt.Errorf("bot: unknown bot kind %q", kind)
	}
	if retriever == nil {
		return nil, fmt.Errorf("bot: retriever must not be nil")
	}
	if generator == nil {
		return nil, fmt.Errorf("bot: generator must not be nil")
	}
	return &Pipeline{kind: kind, retriever: retriever, generator: generator}, nil
}

// Kind returns the bot kind this pipeline serves.
func (p *Pipeline) Kind() prompt.BotKind {
	return p.kind
}

// Answer runs the full pipeline for one query. Failures at any stage are
// returned with their classification intact; an answer is never synthesized
// from a failed stage.
func (p *Pipeline) Answer(ctx context.Context, query string) (string, error) {
	log := logging.FromContext(ctx).With(slog.String("bot", string(p.kind)))

	records, err := p.retriever.Retrieve(ctx, query)
	if err != nil {
		return "", fmt.Errorf("bot: retrieval failed: %w", err)
	}
	log.Debug("retrieved context", slog.Int("records", len(records)))

	composed, err := prompt.Compose(p.kind, query, records)
	if err != nil {
		return "", fmt.Errorf("bot: prompt composition failed: %w", err)
	}

	answer, err := p.generator.Generate(ctx, composed)
	if err != nil {
		return "", fmt.Errorf("bot: generation failed: %w", err)
	}
	log.Debug("generated answer", slog.Int("answer_chars", len(answer)))

	return answer, nil
}
