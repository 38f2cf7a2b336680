package domain

import "errors"

var (
	// ErrMissingCredential is returned when no embedding API key is configured.
	ErrMissingCredential = errors.New("embedding credential not configured")

	// ErrEmbeddingFailed wraps any failure of the embedding service.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrInvalidChunkConfig is returned for a chunk policy that cannot make progress.
	ErrInvalidChunkConfig = errors.New("invalid chunk configuration")

	ErrEmptyQuery = errors.New("query is empty")

	// ErrDimensionMismatch means a vector does not match the collection's
	// dimension, usually because the embedding model changed without a rebuild.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)
