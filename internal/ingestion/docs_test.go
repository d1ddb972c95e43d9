package ingestion

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/medlink-hq/medbot-go/internal/rag"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "word"
	}
	return strings.Join(parts, " ")
}

func TestChunkWords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		text       string
		chunkWords int
		wantLens   []int
	}{
		{"empty text", "   ", 100, nil},
		{"single short chunk", words(10), 100, []int{10}},
		{"exact multiple", words(200), 100, []int{100, 100}},
		{"trailing partial chunk", words(250), 100, []int{100, 100, 50}},
		{"zero uses default", words(150), 0, []int{100, 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			chunks := ChunkWords(tt.text, tt.chunkWords)
			if len(chunks) != len(tt.wantLens) {
				t.Fatalf("got %d chunks, want %d", len(chunks), len(tt.wantLens))
			}
			for i, chunk := range chunks {
				if got := len(strings.Fields(chunk)); got != tt.wantLens[i] {
					t.Errorf("chunk %d has %d words, want %d", i, got, tt.wantLens[i])
				}
			}
		})
	}
}

func TestChunkWords_CollapsesWhitespace(t *testing.T) {
	t.Parallel()

	chunks := ChunkWords("MedLink  connects\n\npatients\twith providers", 100)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0] != "MedLink connects patients with providers" {
		t.Errorf("chunk = %q", chunks[0])
	}
}

func TestIngestDocument(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	p, err := NewPipeline(&fakeEmbedder{dims: 3}, store)
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}

	n, err := p.IngestDocument(context.Background(), words(250), 100, nil)
	if err != nil {
		t.Fatalf("IngestDocument() error = %v", err)
	}
	if n != 3 {
		t.Errorf("IngestDocument() = %d chunks, want 3", n)
	}

	for _, id := range []string{"chunk_0", "chunk_1", "chunk_2"} {
		rec, ok := store.records[id]
		if !ok {
			t.Errorf("missing record %q", id)
			continue
		}
		if rec.Metadata["text"] == "" {
			t.Errorf("record %q has no text metadata", id)
		}
		if len(rec.Vector) != 3 {
			t.Errorf("record %q vector length = %d, want 3", id, len(rec.Vector))
		}
	}
}

func TestIngestDocument_Idempotent(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	p, _ := NewPipeline(&fakeEmbedder{dims: 2}, store)

	for i := 0; i < 2; i++ {
		if _, err := p.IngestDocument(context.Background(), words(150), 100, nil); err != nil {
			t.Fatalf("IngestDocument() run %d error = %v", i, err)
		}
	}
	if len(store.records) != 2 {
		t.Errorf("store holds %d records after re-ingestion, want 2", len(store.records))
	}
}

func TestIngestDocument_EmptyDocument(t *testing.T) {
	t.Parallel()

	p, _ := NewPipeline(&fakeEmbedder{dims: 2}, newMemStore())
	_, err := p.IngestDocument(context.Background(), "  \n ", 100, nil)
	if !errors.Is(err, rag.ErrEmptyInput) {
		t.Errorf("IngestDocument() error = %v, want ErrEmptyInput", err)
	}
}
