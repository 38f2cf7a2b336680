package port

import (
	"context"

	"runnerrag/internal/domain"
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates embeddings for the given texts.
	// Returns a slice of vectors, one per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// VectorIndex is the persistent collection of embedded chunks.
type VectorIndex interface {
	// Rebuild replaces the whole collection with entries.
	Rebuild(entries []domain.IndexedVector) error

	// Query returns the k entries closest to vector by cosine similarity.
	// A missing collection is created empty.
	Query(vector []float32, k int) ([]domain.Match, error)

	// Count returns the number of stored entries, 0 if the collection does not exist.
	Count() (int, error)

	Close() error
}
