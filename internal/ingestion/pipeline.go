package ingestion

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/medlink-hq/medbot-go/internal/rag"
)

// embedBatchSize bounds how many rows are embedded per backend request.
const embedBatchSize = 64

// Pipeline orchestrates the read, embed, and upsert flow for the
// coded-diagnosis corpus.
type Pipeline struct {
	// embedder converts row text into dense vector embeddings.
	embedder rag.Embedder

	// store persists the embedded records.
	store rag.VectorStore
}

// NewPipeline constructs a Pipeline from the provided dependencies.
func NewPipeline(embedder rag.Embedder, store rag.VectorStore) (*Pipeline, error) {
	if embedder == nil {
		return nil, fmt.Errorf("ingestion: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("ingestion: store must not be nil")
	}
	return &Pipeline{embedder: embedder, store: store}, nil
}

// LoadCoded reads the coded-diagnosis CSV from r, embeds each row's ICD-11
// title, and upserts the rows into the store. Record IDs are the zero-based
// row index rendered as a decimal string, so re-running the load overwrites
// rather than duplicates. Missing cells become SentinelMissing. Progress is
// reported via the optional progress callback.
func (p *Pipeline) LoadCoded(ctx context.Context, r io.Reader, progress func(msg string)) (int, error) {
	if progress == nil {
		progress = func(string) {}
	}

	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("ingestion: read header: %w", err)
	}
	cols, err := columnIndex(header, codedColumns)
	if err != nil {
		return 0, err
	}

	var batch []rag.Record
	total := 0
	rowIndex := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return total, fmt.Errorf("ingestion: read row %d: %w", rowIndex, err)
		}

		metadata := make(map[string]string, len(codedColumns))
		for _, col := range codedColumns {
			metadata[col] = normalizeCoded(row[cols[col]])
		}

		batch = append(batch, rag.Record{
			ID:       strconv.Itoa(rowIndex),
			Metadata: metadata,
		})
		rowIndex++

		if len(batch) == embedBatchSize {
			if err := p.embedAndUpsert(ctx, batch); err != nil {
				return total, err
			}
			total += len(batch)
			progress(fmt.Sprintf("ingested %d rows", total))
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := p.embedAndUpsert(ctx, batch); err != nil {
			return total, err
		}
		total += len(batch)
	}

	progress(fmt.Sprintf("ingested %d rows", total))
	return total, nil
}

// embedAndUpsert fills in the batch's vectors from each record's ICD-11 title
// and writes the batch to the store.
func (p *Pipeline) embedAndUpsert(ctx context.Context, batch []rag.Record) error {
	texts := make([]string, len(batch))
	for i, rec := range batch {
		texts[i] = rec.Metadata[colICD11Title]
	}

	embeddings, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("ingestion: embedding batch failed: %w", err)
	}
	if len(embeddings) != len(batch) {
		return fmt.Errorf("ingestion: expected %d embeddings, got %d", len(batch), len(embeddings))
	}
	for i := range batch {
		batch[i].Vector = embeddings[i]
	}

	if err := p.store.Upsert(ctx, batch); err != nil {
		return fmt.Errorf("ingestion: upsert batch failed: %w", err)
	}
	return nil
}

// AugmentMetadata reads the long-definition CSV from r and merges the
// definition columns into already-ingested records via metadata-only
// updates. Vectors are never re-computed; row order must match the initial
// load so the row index addresses the same record. Missing definitions
// become SentinelNotAvailable.
func (p *Pipeline) AugmentMetadata(ctx context.Context, r io.Reader, progress func(msg string)) (int, error) {
	if progress == nil {
		progress = func(string) {}
	}

	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("ingestion: read header: %w", err)
	}
	cols, err := columnIndex(header, definitionColumns)
	if err != nil {
		return 0, err
	}

	total := 0
	rowIndex := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return total, fmt.Errorf("ingestion: read row %d: %w", rowIndex, err)
		}

		fields := make(map[string]string, len(definitionColumns))
		for _, col := range definitionColumns {
			fields[col] = normalizeDefinition(row[cols[col]])
		}

		id := strconv.Itoa(rowIndex)
		if err := p.store.UpdateMetadata(ctx, id, fields); err != nil {
			return total, fmt.Errorf("ingestion: augment row %d: %w", rowIndex, err)
		}
		rowIndex++
		total++

		if total%embedBatchSize == 0 {
			progress(fmt.Sprintf("augmented %d rows", total))
		}
	}

	progress(fmt.Sprintf("augmented %d rows", total))
	return total, nil
}

// columnIndex maps each wanted column name to its position in the header.
func columnIndex(header []string, wanted []string) (map[string]int, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		positions[name] = i
	}

	cols := make(map[string]int, len(wanted))
	for _, name := range wanted {
		i, ok := positions[name]
		if !ok {
			return nil, fmt.Errorf("ingestion: CSV is missing required column %q", name)
		}
		cols[name] = i
	}
	return cols, nil
}
