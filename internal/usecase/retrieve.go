package usecase

import (
	"context"
	"fmt"
	"strings"

	"runnerrag/internal/domain"
	"runnerrag/internal/port"
)

// RetrieveUseCase answers similarity queries against the collection.
type RetrieveUseCase struct {
	embedder port.Embedder
	index    port.VectorIndex
}

// NewRetrieveUseCase creates a new retrieve use case.
func NewRetrieveUseCase(embedder port.Embedder, index port.VectorIndex) *RetrieveUseCase {
	return &RetrieveUseCase{
		embedder: embedder,
		index:    index,
	}
}

// Retrieve embeds query and returns the k most similar chunks, most similar
// first. Results come back exactly as the index ranked them.
func (u *RetrieveUseCase) Retrieve(ctx context.Context, query string, k int) ([]domain.Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}

	vectors, err := u.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, embeddingError(err)
	}
	if len(vectors) != 1 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("%w: no vector returned for query", domain.ErrEmbeddingFailed)
	}

	return u.index.Query(vectors[0], k)
}
