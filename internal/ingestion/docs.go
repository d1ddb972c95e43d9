package ingestion

import (
	"context"
	"fmt"
	"strings"

	"github.com/medlink-hq/medbot-go/internal/rag"
)

// DefaultChunkWords is the document chunk size in whitespace-delimited words.
const DefaultChunkWords = 100

// ChunkWords splits text on whitespace into chunks of at most chunkWords
// words each. The final chunk may be shorter. Whitespace runs are collapsed
// to single spaces inside chunks.
func ChunkWords(text string, chunkWords int) []string {
	if chunkWords <= 0 {
		chunkWords = DefaultChunkWords
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	chunks := make([]string, 0, (len(words)+chunkWords-1)/chunkWords)
	for start := 0; start < len(words); start += chunkWords {
		end := start + chunkWords
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}

// IngestDocument chunks a platform document, embeds every chunk, and upserts
// the chunks into the store. Chunk IDs are "chunk_<i>" with i the zero-based
// chunk index, so re-ingesting the document overwrites prior chunks in place.
func (p *Pipeline) IngestDocument(ctx context.Context, text string, chunkWords int, progress func(msg string)) (int, error) {
	if progress == nil {
		progress = func(string) {}
	}

	chunks := ChunkWords(text, chunkWords)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("ingestion: document is empty: %w", rag.ErrEmptyInput)
	}
	progress(fmt.Sprintf("chunked document into %d chunks", len(chunks)))

	total := 0
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		embeddings, err := p.embedder.Embed(ctx, batch)
		if err != nil {
			return total, fmt.Errorf("ingestion: embedding chunks failed: %w", err)
		}
		if len(embeddings) != len(batch) {
			return total, fmt.Errorf("ingestion: expected %d embeddings, got %d", len(batch), len(embeddings))
		}

		records := make([]rag.Record, len(batch))
		for i, chunk := range batch {
			records[i] = rag.Record{
				ID:       fmt.Sprintf("chunk_%d", start+i),
				Vector:   embeddings[i],
				Metadata: map[string]string{"text": chunk},
			}
		}

		if err := p.store.Upsert(ctx, records); err != nil {
			return total, fmt.Errorf("ingestion: upsert chunks failed: %w", err)
		}
		total += len(records)
	}

	progress(fmt.Sprintf("ingested %d chunks", total))
	return total, nil
}
