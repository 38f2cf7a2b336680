package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"runnerrag/internal/domain"
	"runnerrag/internal/port"
)

// Rebuild stages reported to a ProgressFunc.
const (
	StageCollect = "collect"
	StageChunk   = "chunk"
	StageEmbed   = "embed"
	StageStore   = "store"
)

// ProgressFunc receives stage progress during a rebuild.
type ProgressFunc func(stage string, done, total int)

// RebuildUseCase rebuilds the vector collection from the knowledge directory.
type RebuildUseCase struct {
	dir       string
	collector port.Collector
	chunker   port.Chunker
	embedder  port.Embedder
	index     port.VectorIndex
	newID     func() string
	progress  ProgressFunc
}

// NewRebuildUseCase creates a new rebuild use case.
func NewRebuildUseCase(
	dir string,
	collector port.Collector,
	chunker port.Chunker,
	embedder port.Embedder,
	index port.VectorIndex,
) *RebuildUseCase {
	return &RebuildUseCase{
		dir:       dir,
		collector: collector,
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
		newID:     uuid.NewString,
		progress:  func(string, int, int) {},
	}
}

// WithProgress sets the progress callback.
func (u *RebuildUseCase) WithProgress(fn ProgressFunc) *RebuildUseCase {
	if fn != nil {
		u.progress = fn
	}
	return u
}

// RebuildResult contains the results of a rebuild.
type RebuildResult struct {
	Documents int // documents collected
	Indexed   int // documents that produced at least one chunk
	Skipped   int // documents with no usable text
	Chunks    int // entries written to the collection
	Elapsed   time.Duration
}

// Rebuild collects, chunks, embeds and stores the corpus. When nothing
// produces a chunk the collection is left untouched. An embedding failure
// aborts before the index is modified.
func (u *RebuildUseCase) Rebuild(ctx context.Context) (*RebuildResult, error) {
	start := time.Now()
	result := &RebuildResult{}

	docs, err := u.collector.Collect(u.dir)
	if err != nil {
		return nil, err
	}
	result.Documents = len(docs)
	u.progress(StageCollect, len(docs), len(docs))

	var chunks []domain.Chunk
	for i, doc := range docs {
		if strings.TrimSpace(doc.Text) == "" {
			result.Skipped++
			u.progress(StageChunk, i+1, len(docs))
			continue
		}
		docChunks, err := u.chunker.Chunk(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to chunk %s: %w", doc.Name, err)
		}
		if len(docChunks) == 0 {
			result.Skipped++
		} else {
			result.Indexed++
			chunks = append(chunks, docChunks...)
		}
		u.progress(StageChunk, i+1, len(docs))
	}

	if len(chunks) == 0 {
		slog.Info("no chunks produced, collection left unchanged", "dir", u.dir, "documents", len(docs))
		result.Elapsed = time.Since(start)
		return result, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	u.progress(StageEmbed, 0, len(texts))
	vectors, err := u.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, embeddingError(err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d chunks", domain.ErrEmbeddingFailed, len(vectors), len(texts))
	}
	u.progress(StageEmbed, len(texts), len(texts))

	entries := make([]domain.IndexedVector, len(chunks))
	for i, c := range chunks {
		entries[i] = domain.IndexedVector{
			ID:        u.newID(),
			Text:      c.Text,
			Metadata:  domain.Metadata{Source: c.Source, Chunk: c.Index},
			Embedding: vectors[i],
		}
	}

	u.progress(StageStore, 0, len(entries))
	if err := u.index.Rebuild(entries); err != nil {
		return nil, fmt.Errorf("failed to store vectors: %w", err)
	}
	u.progress(StageStore, len(entries), len(entries))

	result.Chunks = len(entries)
	result.Elapsed = time.Since(start)

	slog.Info("knowledge base rebuilt",
		"documents", result.Documents,
		"indexed", result.Indexed,
		"chunks", result.Chunks,
		"model", u.embedder.ModelName(),
		"elapsed", result.Elapsed.Round(time.Millisecond))

	return result, nil
}

// embeddingError makes sure embedder failures are recognisable with errors.Is.
func embeddingError(err error) error {
	if errors.Is(err, domain.ErrEmbeddingFailed) || errors.Is(err, domain.ErrMissingCredential) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrEmbeddingFailed, err)
}
