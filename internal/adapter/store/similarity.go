package store

import (
	"fmt"
	"math"
	"sort"

	"runnerrag/internal/domain"
)

// CosineSimilarity calculates the cosine similarity between two vectors.
// Vectors of different length, or a zero vector, score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Rank scores every entry against query (brute force) and returns the top k,
// most similar first. Equal scores keep the order of entries. A query whose
// dimension differs from the stored vectors is rejected.
func Rank(query []float32, entries []domain.IndexedVector, k int) ([]domain.Match, error) {
	if k <= 0 || len(entries) == 0 {
		return nil, nil
	}
	if dim := len(entries[0].Embedding); len(query) != dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection has %d (rebuild after changing the embedding model)",
			domain.ErrDimensionMismatch, len(query), dim)
	}

	matches := make([]domain.Match, len(entries))
	for i, e := range entries {
		matches[i] = domain.Match{
			Text:     e.Text,
			Metadata: e.Metadata,
			Score:    CosineSimilarity(query, e.Embedding),
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k], nil
}

// ValidateEntries rejects a rebuild set that would leave the collection
// inconsistent: empty or duplicate ids, or mixed embedding dimensions.
func ValidateEntries(entries []domain.IndexedVector) error {
	seen := make(map[string]struct{}, len(entries))
	dim := -1
	for i, e := range entries {
		if e.ID == "" {
			return fmt.Errorf("entry %d has an empty id", i)
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("duplicate entry id: %s", e.ID)
		}
		seen[e.ID] = struct{}{}

		if len(e.Embedding) == 0 {
			return fmt.Errorf("entry %s has no embedding", e.ID)
		}
		if dim == -1 {
			dim = len(e.Embedding)
		} else if len(e.Embedding) != dim {
			return fmt.Errorf("%w: expected %d, got %d", domain.ErrDimensionMismatch, dim, len(e.Embedding))
		}
	}
	return nil
}
