// Package generator turns a composed prompt into an answer using a chat
// model. Transient model failures are retried with exponential backoff; a
// failure after the final attempt surfaces as a generation-classified error,
// never as an empty answer.
package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/medlink-hq/medbot-go/internal/prompt"
	"github.com/medlink-hq/medbot-go/internal/rag"
)

// chatModel is the slice of the eino model interface the generator needs.
// Keeping it narrow lets tests substitute a fake without implementing the
// full provider surface.
type chatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Generator produces plain-text answers from composed prompts.
type Generator struct {
	// model is the underlying chat model.
	model chatModel

	// retry bounds transient failures.
	retry retryOpts
}

// New constructs a Generator over the given chat model.
func New(m model.BaseChatModel) (*Generator, error) {
	if m == nil {
		return nil, fmt.Errorf("generator: chat model must not be nil")
	}
	return &Generator{model: m, retry: defaultRetry}, nil
}

// Generate sends the prompt to the model and returns its text answer.
func (g *Generator) Generate(ctx context.Context, p prompt.Prompt) (string, error) {
	messages := []*schema.Message{
		schema.SystemMessage(p.Instruction),
		schema.UserMessage(p.UserTurn),
	}

	answer, err := retry(ctx, g.retry, func(ctx context.Context) (string, error) {
		resp, err := g.model.Generate(ctx, messages)
		if err != nil {
			return "", err
		}
		if resp == nil || strings.TrimSpace(resp.Content) == "" {
			return "", fmt.Errorf("model returned an empty answer")
		}
		return resp.Content, nil
	})
	if err != nil {
		return "", rag.WithClass(rag.ClassGeneration, fmt.Errorf("generator: %w", err))
	}

	return answer, nil
}
