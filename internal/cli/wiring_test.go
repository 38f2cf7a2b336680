package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"runnerrag/config"
	"runnerrag/internal/domain"
)

func localConfig(backend string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Index.Backend = backend
	cfg.Embedding.Provider = "local"
	cfg.Embedding.Dimension = 256
	return cfg
}

func writeKnowledge(t *testing.T, root string, files map[string]string) {
	t.Helper()
	dir := filepath.Join(root, "knowledge")
	require.NoError(t, os.MkdirAll(dir, 0755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
}

func TestNewAppRebuildAndRetrieve(t *testing.T) {
	for _, backend := range []string{"bolt", "sqlite", "memory"} {
		t.Run(backend, func(t *testing.T) {
			root := t.TempDir()
			writeKnowledge(t, root, map[string]string{
				"week1.md":  "Easy run, 8 km, HR 138.",
				"week2.txt": "Intervals 5x1km at 4:10.",
			})

			a, err := newApp(localConfig(backend), root, nil)
			require.NoError(t, err)
			defer a.Close()

			n, err := a.kb.RebuildKnowledgeBase(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			count, err := a.kb.CollectionCount()
			require.NoError(t, err)
			assert.Equal(t, 2, count)

			matches, err := a.kb.Retrieve(context.Background(), "intervals", 1)
			require.NoError(t, err)
			require.Len(t, matches, 1)
			assert.Equal(t, "week2.txt", matches[0].Metadata.Source)
		})
	}
}

func TestNewAppMissingCredentialBeforeIndex(t *testing.T) {
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Embedding.APIKeyEnv = "RUNNERRAG_TEST_UNSET_KEY"

	_, err := newApp(cfg, root, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMissingCredential))

	_, statErr := os.Stat(cfg.DataDir(root))
	assert.True(t, os.IsNotExist(statErr), "index must not be opened without a credential")
}

func TestOpenIndexCountWithoutCollection(t *testing.T) {
	root := t.TempDir()
	index, err := openIndex(localConfig("bolt"), root)
	require.NoError(t, err)
	defer index.Close()

	n, err := index.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestTopK(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.Equal(t, 3, topK(0, cfg))
	assert.Equal(t, 7, topK(7, cfg))
}

func TestPrintMatches(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	printMatches(&buf, "pace", nil)
	assert.Equal(t, "No results found.\n", buf.String())

	buf.Reset()
	printMatches(&buf, "pace", []domain.Match{
		{Text: strings.Repeat("é", 600), Metadata: domain.Metadata{Source: "log.txt", Chunk: 2}, Score: 0.5},
	})
	out := buf.String()
	assert.Contains(t, out, "--- [1] log.txt#2 (score: 0.500)")
	assert.Contains(t, out, strings.Repeat("é", 500)+"...")
	assert.NotContains(t, out, strings.Repeat("é", 501))
}
