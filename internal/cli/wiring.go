package cli

import (
	"fmt"

	"runnerrag/config"
	"runnerrag/internal/adapter/chunker"
	"runnerrag/internal/adapter/docx"
	"runnerrag/internal/adapter/embedding"
	"runnerrag/internal/adapter/fs"
	"runnerrag/internal/adapter/memstore"
	"runnerrag/internal/adapter/store"
	"runnerrag/internal/port"
	"runnerrag/internal/usecase"
)

// openIndex opens the configured vector index backend for the collection.
func openIndex(cfg *config.Config, root string) (port.VectorIndex, error) {
	if cfg.Index.Backend == "memory" {
		return memstore.NewMemoryIndex(), nil
	}

	dataDir := cfg.DataDir(root)
	if err := config.EnsureDataDir(dataDir); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	switch cfg.Index.Backend {
	case "", "bolt":
		return store.NewBoltIndex(config.IndexDBPath(dataDir), cfg.Index.Collection)
	case "sqlite":
		return store.NewSQLiteIndex(config.SQLitePath(dataDir), cfg.Index.Collection)
	default:
		return nil, fmt.Errorf("unknown index backend: %s", cfg.Index.Backend)
	}
}

// app bundles what the commands share. Close releases the index.
type app struct {
	kb        *usecase.KnowledgeBase
	rebuild   *usecase.RebuildUseCase
	collector *fs.Collector
	index     port.VectorIndex
	embedder  port.Embedder
	dir       string
}

func (a *app) Close() error {
	return a.index.Close()
}

// newApp wires the pipeline. The embedder is built first so a missing
// credential is reported before the index is opened.
func newApp(cfg *config.Config, root string, wrap func(port.Embedder) (port.Embedder, error)) (*app, error) {
	embedder, err := embedding.NewFromConfig(cfg.Embedding)
	if err != nil {
		return nil, err
	}
	if wrap != nil {
		if embedder, err = wrap(embedder); err != nil {
			return nil, err
		}
	}

	chk, err := chunker.NewParagraphChunker(cfg.Chunking.MaxChars, cfg.Chunking.Overlap)
	if err != nil {
		return nil, err
	}

	collector := fs.NewCollector(cfg.Knowledge.TextPatterns, cfg.Knowledge.RichPatterns, docx.NewReader())

	index, err := openIndex(cfg, root)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}

	dir := cfg.KnowledgeDir(root)
	rebuild := usecase.NewRebuildUseCase(dir, collector, chk, embedder, index)
	retrieve := usecase.NewRetrieveUseCase(embedder, index)

	return &app{
		kb:        usecase.NewKnowledgeBase(rebuild, retrieve, index),
		rebuild:   rebuild,
		collector: collector,
		index:     index,
		embedder:  embedder,
		dir:       dir,
	}, nil
}

// topK returns the flag value when set, else the configured default.
func topK(flagValue int, cfg *config.Config) int {
	if flagValue > 0 {
		return flagValue
	}
	return cfg.Retrieve.TopK
}
