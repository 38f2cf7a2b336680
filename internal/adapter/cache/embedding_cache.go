package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
	"runnerrag/internal/port"
)

const defaultSize = 256

// CachedEmbedder serves repeated single-text embeddings (typically queries)
// from an LRU cache. Batch calls go straight to the wrapped embedder.
type CachedEmbedder struct {
	embedder port.Embedder
	cache    *lru.Cache[string, []float32]
}

func NewCachedEmbedder(embedder port.Embedder, size int) (*CachedEmbedder, error) {
	if size <= 0 {
		size = defaultSize
	}
	c, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &CachedEmbedder{embedder: embedder, cache: c}, nil
}

func cacheKey(model, text string) string {
	data := []byte(model)
	data = append(data, 0)
	data = append(data, text...)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:16])
}

func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) != 1 {
		return c.embedder.Embed(ctx, texts)
	}

	key := cacheKey(c.embedder.ModelName(), texts[0])
	if v, ok := c.cache.Get(key); ok {
		return [][]float32{slices.Clone(v)}, nil
	}

	vectors, err := c.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 1 {
		c.cache.Add(key, slices.Clone(vectors[0]))
	}
	return vectors, nil
}

func (c *CachedEmbedder) Dimension() int {
	return c.embedder.Dimension()
}

func (c *CachedEmbedder) ModelName() string {
	return c.embedder.ModelName()
}

// Len returns the number of cached vectors.
func (c *CachedEmbedder) Len() int {
	return c.cache.Len()
}

// Purge drops every cached vector.
func (c *CachedEmbedder) Purge() {
	c.cache.Purge()
}
