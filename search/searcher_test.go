package search

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/poiesic/indexit/ai/mock"
	"github.com/poiesic/indexit/core"
	"github.com/poiesic/indexit/storage"
	"github.com/poiesic/indexit/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSearchRepo(t *testing.T) storage.ChunkRepository {
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func seedChunk(content string, vector []float32, keywords ...string) *core.ProcessedChunk {
	return &core.ProcessedChunk{
		Id:                core.ChunkID("doc-1", content),
		Content:           content,
		DocumentID:        "doc-1",
		DocumentName:      "Doc",
		ImportantKeywords: keywords,
		Vector:            vector,
		VectorDim:         len(vector),
	}
}

func probeEmbedder(vector []float32) *mock.MockEmbedder {
	return mock.NewMockEmbedder().WithEmbedTextFunc(
		func(ctx context.Context, text string) ([]float32, error) {
			return vector, nil
		})
}

func TestNewSearcher(t *testing.T) {
	repo := setupSearchRepo(t)
	embedder := mock.NewMockEmbedder()

	t.Run("valid configuration", func(t *testing.T) {
		searcher, err := NewSearcher(repo, embedder)
		require.NoError(t, err)
		assert.NotNil(t, searcher)
		assert.Equal(t, defaultLimit, searcher.limit)
		assert.Equal(t, defaultMinScore, searcher.minScore)
	})

	t.Run("with custom logger", func(t *testing.T) {
		logger := slog.Default()
		searcher, err := NewSearcher(repo, embedder, WithLogger(logger))
		require.NoError(t, err)
		assert.Equal(t, logger, searcher.logger)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		searcher, err := NewSearcher(repo, embedder, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, searcher.logger)
	})

	t.Run("with limit", func(t *testing.T) {
		searcher, err := NewSearcher(repo, embedder, WithLimit(3))
		require.NoError(t, err)
		assert.Equal(t, 3, searcher.limit)
	})

	t.Run("with non-positive limit falls back to default", func(t *testing.T) {
		searcher, err := NewSearcher(repo, embedder, WithLimit(0))
		require.NoError(t, err)
		assert.Equal(t, defaultLimit, searcher.limit)
	})

	t.Run("with min score", func(t *testing.T) {
		searcher, err := NewSearcher(repo, embedder, WithMinScore(0.25))
		require.NoError(t, err)
		assert.Equal(t, float32(0.25), searcher.minScore)
	})

	t.Run("nil store", func(t *testing.T) {
		_, err := NewSearcher(nil, embedder)
		assert.Equal(t, ErrChunkRepositoryRequired, err)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewSearcher(repo, nil)
		assert.Equal(t, ErrEmbedderRequired, err)
	})
}

func TestFindSimilar_EmptyIndex(t *testing.T) {
	repo := setupSearchRepo(t)
	searcher, err := NewSearcher(repo, mock.NewMockEmbedder())
	require.NoError(t, err)

	results, err := searcher.FindSimilar(context.Background(), "idx", "test query")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindSimilar_InputValidation(t *testing.T) {
	repo := setupSearchRepo(t)
	embedder := mock.NewMockEmbedder()
	searcher, err := NewSearcher(repo, embedder)
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("empty index name", func(t *testing.T) {
		_, err := searcher.FindSimilar(ctx, "", "query")
		assert.ErrorIs(t, err, ErrIndexNameRequired)
	})

	t.Run("empty query", func(t *testing.T) {
		_, err := searcher.FindSimilar(ctx, "idx", "")
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})

	t.Run("whitespace query", func(t *testing.T) {
		_, err := searcher.FindSimilar(ctx, "idx", "   \t  ")
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})

	assert.Equal(t, 0, embedder.CallCount(), "invalid input never reaches the embedder")
}

func TestFindSimilar_RanksBySimilarity(t *testing.T) {
	repo := setupSearchRepo(t)
	ctx := context.Background()

	chunks := []*core.ProcessedChunk{
		seedChunk("This is about artificial intelligence", []float32{0.9, 0.1, 0.0}),
		seedChunk("This is about machine learning", []float32{0.85, 0.15, 0.0}),
		seedChunk("This is about cooking recipes", []float32{0.1, 0.1, 0.8}),
	}
	require.NoError(t, repo.AddChunks(ctx, "idx", "ds", chunks...))

	searcher, err := NewSearcher(repo, probeEmbedder([]float32{0.88, 0.12, 0.0}))
	require.NoError(t, err)

	results, err := searcher.FindSimilar(ctx, "idx", "AI topics")
	require.NoError(t, err)

	require.Len(t, results, 2, "the cooking chunk falls below the score threshold")
	assert.Equal(t, "This is about artificial intelligence", results[0].Chunk.Content)
	assert.Equal(t, "This is about machine learning", results[1].Chunk.Content)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestFindSimilar_EmbedderError(t *testing.T) {
	repo := setupSearchRepo(t)

	expectedErr := errors.New("embedder offline")
	embedder := mock.NewMockEmbedder().WithEmbedTextFunc(
		func(ctx context.Context, text string) ([]float32, error) {
			return nil, expectedErr
		})

	searcher, err := NewSearcher(repo, embedder)
	require.NoError(t, err)

	_, err = searcher.FindSimilar(context.Background(), "idx", "query")
	assert.ErrorIs(t, err, expectedErr)
}

func TestFindSimilar_VerbatimBoost(t *testing.T) {
	repo := setupSearchRepo(t)
	ctx := context.Background()

	chunks := []*core.ProcessedChunk{
		seedChunk("Use synthetic gearbox oil", []float32{0.7, 0.0, 0.0}),
		seedChunk("General maintenance schedule", []float32{0.9, 0.0, 0.0}),
	}
	require.NoError(t, repo.AddChunks(ctx, "idx", "ds", chunks...))

	searcher, err := NewSearcher(repo, probeEmbedder([]float32{1, 0, 0}))
	require.NoError(t, err)

	results, err := searcher.FindSimilar(ctx, "idx", "gearbox oil")
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "Use synthetic gearbox oil", results[0].Chunk.Content,
		"the verbatim match outranks the stronger vector match")
	assert.InDelta(t, 1.0, results[0].Score, 0.001, "0.7 similarity plus 0.3 boost")
	assert.InDelta(t, 0.9, results[1].Score, 0.001)
}

func TestFindSimilar_KeywordAnnotationBoost(t *testing.T) {
	repo := setupSearchRepo(t)
	ctx := context.Background()

	chunks := []*core.ProcessedChunk{
		seedChunk("Rotor assembly torque values", []float32{0.65, 0.0, 0.0}, "turbine"),
		seedChunk("Filing a purchase order", []float32{0.8, 0.0, 0.0}),
	}
	require.NoError(t, repo.AddChunks(ctx, "idx", "ds", chunks...))

	searcher, err := NewSearcher(repo, probeEmbedder([]float32{1, 0, 0}))
	require.NoError(t, err)

	results, err := searcher.FindSimilar(ctx, "idx", "turbine")
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "Rotor assembly torque values", results[0].Chunk.Content,
		"keyword annotations count as verbatim text")
	assert.InDelta(t, 0.95, results[0].Score, 0.001)
}

func TestFindSimilar_LimitApplied(t *testing.T) {
	repo := setupSearchRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		chunk := seedChunk("similar passage "+string(rune('a'+i)), []float32{0.9, 0.1, 0.0})
		require.NoError(t, repo.AddChunks(ctx, "idx", "ds", chunk))
	}

	searcher, err := NewSearcher(repo, probeEmbedder([]float32{1, 0, 0}), WithLimit(2))
	require.NoError(t, err)

	results, err := searcher.FindSimilar(ctx, "idx", "passage")
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestFindSimilar_MinScoreFiltering(t *testing.T) {
	repo := setupSearchRepo(t)
	ctx := context.Background()

	chunks := []*core.ProcessedChunk{
		seedChunk("strong match", []float32{0.95, 0.0, 0.0}),
		seedChunk("weak match", []float32{0.7, 0.0, 0.0}),
	}
	require.NoError(t, repo.AddChunks(ctx, "idx", "ds", chunks...))

	searcher, err := NewSearcher(repo, probeEmbedder([]float32{1, 0, 0}), WithMinScore(0.9))
	require.NoError(t, err)

	results, err := searcher.FindSimilar(ctx, "idx", "anything")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "strong match", results[0].Chunk.Content)
}

func TestTokenizeAndFilter(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"lowercases and strips punctuation", "Hello, World!", []string{"hello", "world"}},
		{"removes stop words", "the cat is on a mat", []string{"cat", "mat"}},
		{"empty input", "", []string{}},
		{"only stop words", "the a an is", []string{}},
		{"mixed", "Adjust the Gearbox; check OIL levels.", []string{"adjust", "gearbox", "check", "oil", "levels"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tokenizeAndFilter(tt.input))
		})
	}
}

func TestMatchesAllQueryWords(t *testing.T) {
	chunk := &core.ProcessedChunk{
		Content:           "Replace the hydraulic pump seal",
		ImportantKeywords: []string{"maintenance"},
		Questions:         []string{"How often should the seal be replaced?"},
	}

	tests := []struct {
		name     string
		query    string
		expected bool
	}{
		{"all words in content", "hydraulic pump", true},
		{"case and punctuation ignored", "Pump, Seal!", true},
		{"keyword annotation matches", "maintenance pump", true},
		{"question annotation matches", "often replaced", true},
		{"missing word", "hydraulic filter", false},
		{"stop words only", "the is a", false},
		{"empty query", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, matchesAllQueryWords(chunk, tt.query))
		})
	}

	t.Run("nil chunk", func(t *testing.T) {
		assert.False(t, matchesAllQueryWords(nil, "query"))
	})
}
