package indexit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/indexit/ai"
	"github.com/poiesic/indexit/ingest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("create new index", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_index")
		idx, err := New(tmpDir)
		require.NoError(t, err)
		require.NotNil(t, idx)
		defer idx.Close()

		// Verify components are initialized
		assert.NotNil(t, idx.Chunks())
		assert.NotNil(t, idx.Embedder())
		assert.NotNil(t, idx.backend)
		assert.NotNil(t, idx.logger)
	})

	t.Run("in memory", func(t *testing.T) {
		idx, err := New("", WithInMemory())
		require.NoError(t, err)
		require.NotNil(t, idx)
		defer idx.Close()

		assert.NotNil(t, idx.Chunks())
	})

	t.Run("error with invalid path", func(t *testing.T) {
		// Try to open an index at a file path instead of a directory
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		idx, err := New(tmpFile)
		assert.Error(t, err)
		assert.Nil(t, idx)
	})

	t.Run("error with invalid ingest config", func(t *testing.T) {
		cfg := ingest.DefaultConfig()
		cfg.MinBatchSize = 0

		idx, err := New(t.TempDir(), WithIngestConfig(cfg))
		assert.Error(t, err)
		assert.Nil(t, idx)
	})

	t.Run("error with invalid ai config", func(t *testing.T) {
		idx, err := New(t.TempDir(), WithAIConfig(&ai.Config{}))
		assert.Error(t, err)
		assert.Nil(t, idx)
	})

	t.Run("rate limited embedder", func(t *testing.T) {
		cfg := ai.NewConfig(
			ai.WithRequestsPerSecond(4),
			ai.WithBurst(2),
		)

		idx, err := New("", WithInMemory(), WithAIConfig(cfg))
		require.NoError(t, err)
		require.NotNil(t, idx)
		defer idx.Close()

		assert.NotNil(t, idx.Embedder())
	})
}

func TestIndex_Close(t *testing.T) {
	tmpDir := t.TempDir()
	idx, err := New(tmpDir)
	require.NoError(t, err)
	require.NotNil(t, idx)

	// Close the index
	err = idx.Close()
	assert.NoError(t, err)
}

func TestIndex_FactoryMethods(t *testing.T) {
	idx, err := New("", WithInMemory())
	require.NoError(t, err)
	require.NotNil(t, idx)
	defer idx.Close()

	t.Run("can create ingester", func(t *testing.T) {
		ing, err := idx.NewIngester()
		require.NoError(t, err)
		require.NotNil(t, ing)
	})

	t.Run("can create pipeline", func(t *testing.T) {
		p, err := idx.NewPipeline()
		require.NoError(t, err)
		require.NotNil(t, p)
		p.Release()
	})

	t.Run("can create searcher", func(t *testing.T) {
		s, err := idx.NewSearcher()
		require.NoError(t, err)
		require.NotNil(t, s)
	})
}
