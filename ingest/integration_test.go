package ingest

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/indexit/ai"
	"github.com/poiesic/indexit/ai/mock"
	"github.com/poiesic/indexit/ai/openai"
	"github.com/poiesic/indexit/core"
	"github.com/poiesic/indexit/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestIntegration_FullIngestionWorkflow runs the whole pipeline against an
// in-memory store with a mock embedder: chunks in, searchable vectors out.
func TestIntegration_FullIngestionWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	backend, err := badger.OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	repo, err := badger.NewChunkRepository(backend)
	require.NoError(t, err)
	defer repo.Close()

	chunks := make([]core.ChunkRequest, 50)
	for i := range chunks {
		chunks[i] = core.ChunkRequest{Content: fmt.Sprintf("passage number %d", i)}
	}
	doc := core.DocInfo{
		DocumentID:   "manual-1",
		DatasetID:    "docs",
		DocumentName: "Operations Manual",
	}

	embedder := mock.NewMockEmbedder()

	config := DefaultConfig()
	config.InitialBatchSize = 10
	config.RetryBaseDelay = 10 * time.Millisecond
	config.BatchPause = 0

	var buf bytes.Buffer
	ing, err := New(repo, embedder, config, WithProgress(WriterProgress(&buf)))
	require.NoError(t, err)

	result, err := ing.Run(ctx, chunks, doc, "manuals", "docs")
	require.NoError(t, err)

	assert.Equal(t, 50, result.TotalAdded)
	assert.Equal(t, 0, result.TotalFailed)
	assert.Equal(t, 100.0, result.Stats.SuccessRate)
	assert.Greater(t, result.Stats.EmbeddingCost, 0)

	count, err := repo.CountChunks(ctx, "manuals")
	require.NoError(t, err)
	assert.Equal(t, 50, count)

	// Every chunk is retrievable by its content-derived ID and carries the
	// blended vector plus its dimensionality.
	for i := range chunks {
		chunk, err := repo.GetChunk(ctx, "manuals", core.ChunkID("manual-1", chunks[i].Content))
		require.NoError(t, err)
		require.NotNil(t, chunk, "chunk %d should be stored", i)
		assert.Equal(t, chunks[i].Content, chunk.Content)
		assert.Equal(t, "docs", chunk.DatasetID)
		assert.NotEmpty(t, chunk.Vector)
		assert.Equal(t, len(chunk.Vector), chunk.VectorDim)
		assert.False(t, chunk.InsertedAt.IsZero())
	}

	// Progress rendered through the writer callback.
	output := buf.String()
	assert.Contains(t, output, "Ingesting:")
	assert.Contains(t, output, "complete: 50 added, 0 failed")
	assert.Contains(t, output, "(100.0%)")
}

// TestIntegration_WithRealEmbedder exercises a live OpenAI-compatible
// endpoint and is skipped by default.
func TestIntegration_WithRealEmbedder(t *testing.T) {
	t.Skip("Requires running embedding service - enable manually for testing")

	ctx := context.Background()

	backend, err := badger.OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	repo, err := badger.NewChunkRepository(backend)
	require.NoError(t, err)
	defer repo.Close()

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost("http://localhost:11434/v1"),
		ai.WithEmbeddingModel("embeddinggemma"),
	)
	embedder, err := openai.NewEmbedder(aiConfig)
	require.NoError(t, err)

	chunks := []core.ChunkRequest{
		{Content: "The gearbox requires synthetic oil."},
		{Content: "Inspect the coolant loop every six months."},
	}
	doc := core.DocInfo{DocumentID: "m-1", DatasetID: "docs", DocumentName: "Maintenance"}

	result, err := Run(ctx, repo, embedder, chunks, doc, "manuals", "docs", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalAdded)

	for _, chunk := range chunks {
		stored, err := repo.GetChunk(ctx, "manuals", core.ChunkID("m-1", chunk.Content))
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Greater(t, len(stored.Vector), 0)
	}
}

// TestIntegration_IdempotentIngestion verifies that resubmitting the same
// document overwrites chunks instead of duplicating them.
func TestIntegration_IdempotentIngestion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	backend, err := badger.OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	repo, err := badger.NewChunkRepository(backend)
	require.NoError(t, err)
	defer repo.Close()

	chunks := make([]core.ChunkRequest, 10)
	for i := range chunks {
		chunks[i] = core.ChunkRequest{Content: fmt.Sprintf("stable passage %d", i)}
	}
	doc := core.DocInfo{DocumentID: "doc-1", DatasetID: "ds", DocumentName: "Doc"}

	// The mock embeds identical text to identical vectors, so reruns are
	// exact overwrites.
	embedder := mock.NewMockEmbedder()

	config := DefaultConfig()
	config.InitialBatchSize = 5
	config.RetryBaseDelay = 10 * time.Millisecond
	config.BatchPause = 0

	ing, err := New(repo, embedder, config)
	require.NoError(t, err)

	first, err := ing.Run(ctx, chunks, doc, "idx", "ds")
	require.NoError(t, err)
	require.Equal(t, 10, first.TotalAdded)

	firstStored, err := repo.GetChunk(ctx, "idx", core.ChunkID("doc-1", chunks[0].Content))
	require.NoError(t, err)
	require.NotNil(t, firstStored)

	second, err := ing.Run(ctx, chunks, doc, "idx", "ds")
	require.NoError(t, err)
	require.Equal(t, 10, second.TotalAdded)

	count, err := repo.CountChunks(ctx, "idx")
	require.NoError(t, err)
	assert.Equal(t, 10, count, "rerun overwrites, count is unchanged")

	secondStored, err := repo.GetChunk(ctx, "idx", core.ChunkID("doc-1", chunks[0].Content))
	require.NoError(t, err)
	require.NotNil(t, secondStored)

	require.Equal(t, len(firstStored.Vector), len(secondStored.Vector))
	for i := range firstStored.Vector {
		assert.InDelta(t, firstStored.Vector[i], secondStored.Vector[i], 0.001,
			"vectors should be identical after re-ingestion")
	}
}
