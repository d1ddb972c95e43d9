package generator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/medlink-hq/medbot-go/internal/prompt"
	"github.com/medlink-hq/medbot-go/internal/rag"
)

type fakeModel struct {
	responses []*schema.Message
	errs      []error
	calls     int
	got       []*schema.Message
}

func (f *fakeModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.got = input
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return nil, errors.New("no scripted response")
}

// fastRetry keeps tests quick.
var fastRetry = retryOpts{maxAttempts: 3, initialWait: time.Millisecond, maxWait: 5 * time.Millisecond}

func TestGenerate_SendsSystemAndUserMessages(t *testing.T) {
	t.Parallel()

	m := &fakeModel{responses: []*schema.Message{schema.AssistantMessage("BA00 Essential hypertension", nil)}}
	g := &Generator{model: m, retry: fastRetry}

	answer, err := g.Generate(context.Background(), prompt.Prompt{
		Instruction: "coding instruction",
		UserTurn:    "Query: chest pain",
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if answer != "BA00 Essential hypertension" {
		t.Errorf("answer = %q", answer)
	}

	if len(m.got) != 2 {
		t.Fatalf("model received %d messages, want 2", len(m.got))
	}
	if m.got[0].Role != schema.System || m.got[0].Content != "coding instruction" {
		t.Errorf("first message = %+v, want system instruction", m.got[0])
	}
	if m.got[1].Role != schema.User || m.got[1].Content != "Query: chest pain" {
		t.Errorf("second message = %+v, want user turn", m.got[1])
	}
}

func TestGenerate_RetriesTransientFailure(t *testing.T) {
	t.Parallel()

	m := &fakeModel{
		errs:      []error{errors.New("rate limited"), errors.New("rate limited"), nil},
		responses: []*schema.Message{nil, nil, schema.AssistantMessage("answer", nil)},
	}
	g := &Generator{model: m, retry: fastRetry}

	answer, err := g.Generate(context.Background(), prompt.Prompt{Instruction: "i", UserTurn: "u"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if answer != "answer" {
		t.Errorf("answer = %q", answer)
	}
	if m.calls != 3 {
		t.Errorf("model called %d times, want 3", m.calls)
	}
}

func TestGenerate_ExhaustedRetriesClassified(t *testing.T) {
	t.Parallel()

	m := &fakeModel{errs: []error{
		errors.New("overloaded"), errors.New("overloaded"), errors.New("overloaded"),
	}}
	g := &Generator{model: m, retry: fastRetry}

	_, err := g.Generate(context.Background(), prompt.Prompt{Instruction: "i", UserTurn: "u"})
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if rag.ClassOf(err) != rag.ClassGeneration {
		t.Errorf("ClassOf(err) = %q, want %q", rag.ClassOf(err), rag.ClassGeneration)
	}
	if m.calls != 3 {
		t.Errorf("model called %d times, want 3", m.calls)
	}
}

func TestGenerate_EmptyAnswerIsAnError(t *testing.T) {
	t.Parallel()

	m := &fakeModel{responses: []*schema.Message{
		schema.AssistantMessage("  ", nil),
		schema.AssistantMessage("  ", nil),
		schema.AssistantMessage("  ", nil),
	}}
	g := &Generator{model: m, retry: fastRetry}

	_, err := g.Generate(context.Background(), prompt.Prompt{Instruction: "i", UserTurn: "u"})
	if err == nil {
		t.Fatal("expected error for empty model answer")
	}
	if rag.ClassOf(err) != rag.ClassGeneration {
		t.Errorf("ClassOf(err) = %q, want %q", rag.ClassOf(err), rag.ClassGeneration)
	}
}

func TestGenerate_ContextCancelledDuringBackoff(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := &fakeModel{errs: []error{errors.New("transient")}}
	g := &Generator{model: m, retry: retryOpts{maxAttempts: 3, initialWait: time.Hour, maxWait: time.Hour}}

	_, err := g.Generate(ctx, prompt.Prompt{Instruction: "i", UserTurn: "u"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Generate() error = %v, want context.Canceled", err)
	}
}
