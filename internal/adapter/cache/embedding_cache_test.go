package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls int
	fail  bool
}

func (e *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.fail {
		return nil, errors.New("unavailable")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

func (e *countingEmbedder) Dimension() int    { return 2 }
func (e *countingEmbedder) ModelName() string { return "counting" }

func TestCachedEmbedderServesRepeatQueries(t *testing.T) {
	inner := &countingEmbedder{}
	c, err := NewCachedEmbedder(inner, 4)
	require.NoError(t, err)

	first, err := c.Embed(context.Background(), []string{"hr 140"})
	require.NoError(t, err)
	second, err := c.Embed(context.Background(), []string{"hr 140"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, 1, c.Len())

	// Mutating a returned vector must not poison the cache.
	second[0][0] = 99
	third, err := c.Embed(context.Background(), []string{"hr 140"})
	require.NoError(t, err)
	assert.Equal(t, float32(6), third[0][0])
}

func TestCachedEmbedderBatchBypassesCache(t *testing.T) {
	inner := &countingEmbedder{}
	c, err := NewCachedEmbedder(inner, 4)
	require.NoError(t, err)

	_, err = c.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	_, err = c.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 0, c.Len())
}

func TestCachedEmbedderDoesNotCacheErrors(t *testing.T) {
	inner := &countingEmbedder{fail: true}
	c, err := NewCachedEmbedder(inner, 4)
	require.NoError(t, err)

	_, err = c.Embed(context.Background(), []string{"q"})
	require.Error(t, err)
	assert.Equal(t, 0, c.Len())

	inner.fail = false
	_, err = c.Embed(context.Background(), []string{"q"})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedEmbedderEvictsAndPurges(t *testing.T) {
	inner := &countingEmbedder{}
	c, err := NewCachedEmbedder(inner, 2)
	require.NoError(t, err)

	for _, q := range []string{"a", "bb", "ccc"} {
		_, err := c.Embed(context.Background(), []string{q})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, "counting", c.ModelName())
	assert.Equal(t, 2, c.Dimension())
}
