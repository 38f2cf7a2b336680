package usecase

import (
	"context"
	"log/slog"

	"runnerrag/internal/domain"
	"runnerrag/internal/port"
)

// KnowledgeBase is the entry point the CLI uses: rebuild, count and retrieve
// over one collection.
type KnowledgeBase struct {
	rebuild  *RebuildUseCase
	retrieve *RetrieveUseCase
	index    port.VectorIndex
}

func NewKnowledgeBase(rebuild *RebuildUseCase, retrieve *RetrieveUseCase, index port.VectorIndex) *KnowledgeBase {
	return &KnowledgeBase{
		rebuild:  rebuild,
		retrieve: retrieve,
		index:    index,
	}
}

// RebuildKnowledgeBase replaces the collection and returns the chunk count.
func (kb *KnowledgeBase) RebuildKnowledgeBase(ctx context.Context) (int, error) {
	result, err := kb.rebuild.Rebuild(ctx)
	if err != nil {
		return 0, err
	}
	return result.Chunks, nil
}

// RebuildDetailed is RebuildKnowledgeBase with the full result.
func (kb *KnowledgeBase) RebuildDetailed(ctx context.Context) (*RebuildResult, error) {
	return kb.rebuild.Rebuild(ctx)
}

// CollectionCount returns the number of stored chunks.
func (kb *KnowledgeBase) CollectionCount() (int, error) {
	return kb.index.Count()
}

func (kb *KnowledgeBase) Retrieve(ctx context.Context, query string, k int) ([]domain.Match, error) {
	return kb.retrieve.Retrieve(ctx, query, k)
}

// EnsureBuilt rebuilds only when the collection is empty. It returns the
// chunk count and whether a rebuild ran.
func (kb *KnowledgeBase) EnsureBuilt(ctx context.Context) (int, bool, error) {
	n, err := kb.index.Count()
	if err != nil {
		return 0, false, err
	}
	if n > 0 {
		return n, false, nil
	}

	slog.Info("collection is empty, building knowledge base")
	built, err := kb.RebuildKnowledgeBase(ctx)
	if err != nil {
		return 0, false, err
	}
	return built, true, nil
}
