package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/indexit/core"
	"github.com/poiesic/indexit/ingest"
	"github.com/poiesic/indexit/storage"
	"github.com/poiesic/indexit/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEmbedder implements ai.Embedder for testing.
type testEmbedder struct {
	failContaining string // batches containing this text fail
}

func (m *testEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *testEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, int, error) {
	for _, text := range texts {
		if m.failContaining != "" && strings.Contains(text, m.failContaining) {
			return nil, 0, errors.New("invalid input rejected")
		}
	}

	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = []float32{0.1, 0.2, 0.3}
	}
	return result, len(texts), nil
}

func setupTestRepository(t *testing.T) storage.ChunkRepository {
	backend, err := badger.OpenBackend(t.TempDir(), false)
	require.NoError(t, err)

	repo, err := badger.NewChunkRepository(backend)
	require.NoError(t, err)

	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})

	return repo
}

func fastIngestConfig() ingest.Config {
	config := ingest.DefaultConfig()
	config.MaxRetries = 1
	config.RetryBaseDelay = time.Millisecond
	config.BatchPause = 0
	return config
}

func testJob(docID string, chunkCount int) Job {
	chunks := make([]core.ChunkRequest, chunkCount)
	for i := range chunks {
		chunks[i] = core.ChunkRequest{Content: fmt.Sprintf("%s passage %d", docID, i)}
	}
	return Job{
		Doc: core.DocInfo{
			DocumentID:   docID,
			DatasetID:    "ds-1",
			DocumentName: "Document " + docID,
		},
		IndexName: "idx",
		DatasetID: "ds-1",
		Chunks:    chunks,
	}
}

func awaitResult(t *testing.T, results <-chan JobResult) JobResult {
	t.Helper()
	select {
	case result := <-results:
		return result
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for job result")
		return JobResult{}
	}
}

func TestNewPipeline(t *testing.T) {
	repo := setupTestRepository(t)
	embedder := &testEmbedder{}

	t.Run("valid pipeline", func(t *testing.T) {
		pipeline, err := NewPipeline(repo, embedder)
		require.NoError(t, err)
		require.NotNil(t, pipeline)
		defer pipeline.Release()

		assert.NotNil(t, pipeline.store)
		assert.NotNil(t, pipeline.pool)
		assert.NotNil(t, pipeline.logger)
	})

	t.Run("nil store", func(t *testing.T) {
		_, err := NewPipeline(nil, embedder)
		assert.Equal(t, ErrChunkRepositoryRequired, err)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewPipeline(repo, nil)
		assert.Equal(t, ErrEmbedderRequired, err)
	})
}

func TestPipeline_WithOptions(t *testing.T) {
	repo := setupTestRepository(t)
	embedder := &testEmbedder{}

	t.Run("with pool size", func(t *testing.T) {
		pipeline, err := NewPipeline(repo, embedder, WithPoolSize(4))
		require.NoError(t, err)
		defer pipeline.Release()

		assert.Equal(t, 4, pipeline.pool.Cap())
	})

	t.Run("with pool size zero defaults to 1", func(t *testing.T) {
		pipeline, err := NewPipeline(repo, embedder, WithPoolSize(0))
		require.NoError(t, err)
		defer pipeline.Release()

		assert.Equal(t, 1, pipeline.pool.Cap())
	})

	t.Run("with custom logger", func(t *testing.T) {
		logger := slog.Default()
		pipeline, err := NewPipeline(repo, embedder, WithLogger(logger))
		require.NoError(t, err)
		defer pipeline.Release()

		assert.Equal(t, logger, pipeline.logger)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		pipeline, err := NewPipeline(repo, embedder, WithLogger(nil))
		require.NoError(t, err)
		defer pipeline.Release()

		assert.NotNil(t, pipeline.logger)
	})

	t.Run("with ingest config", func(t *testing.T) {
		config := fastIngestConfig()
		pipeline, err := NewPipeline(repo, embedder, WithIngestConfig(config))
		require.NoError(t, err)
		defer pipeline.Release()

		assert.Equal(t, config, pipeline.ingestConfig)
	})

	t.Run("invalid ingest config rejected", func(t *testing.T) {
		config := fastIngestConfig()
		config.MinBatchSize = 0
		_, err := NewPipeline(repo, embedder, WithIngestConfig(config))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MinBatchSize")
	})

	t.Run("with multiple options", func(t *testing.T) {
		logger := slog.Default()
		pipeline, err := NewPipeline(repo, embedder,
			WithPoolSize(2),
			WithLogger(logger),
			WithIngestConfig(fastIngestConfig()),
		)
		require.NoError(t, err)
		defer pipeline.Release()

		assert.Equal(t, logger, pipeline.logger)
		assert.Equal(t, 2, pipeline.pool.Cap())
	})
}

func TestPipeline_Submit(t *testing.T) {
	repo := setupTestRepository(t)
	embedder := &testEmbedder{}

	pipeline, err := NewPipeline(repo, embedder, WithPoolSize(1), WithIngestConfig(fastIngestConfig()))
	require.NoError(t, err)
	defer pipeline.Release()

	ctx := context.Background()
	results := make(chan JobResult, 1)

	job := testJob("doc-1", 12)
	job.OnDone = func(result JobResult) { results <- result }

	jobID, err := pipeline.Submit(ctx, job)
	require.NoError(t, err)
	assert.NotEmpty(t, jobID)

	result := awaitResult(t, results)
	assert.Equal(t, jobID, result.JobID)
	assert.Equal(t, "doc-1", result.Doc.DocumentID)
	assert.Equal(t, "idx", result.IndexName)
	require.NoError(t, result.Err)
	require.NotNil(t, result.Result)
	assert.Equal(t, 12, result.Result.TotalAdded)
	assert.Equal(t, 0, result.Result.TotalFailed)

	count, err := repo.CountChunks(ctx, "idx")
	require.NoError(t, err)
	assert.Equal(t, 12, count)
}

func TestPipeline_Submit_Validation(t *testing.T) {
	repo := setupTestRepository(t)
	embedder := &testEmbedder{}

	pipeline, err := NewPipeline(repo, embedder)
	require.NoError(t, err)
	defer pipeline.Release()

	ctx := context.Background()

	t.Run("invalid doc info", func(t *testing.T) {
		job := testJob("doc-1", 1)
		job.Doc.DocumentName = ""
		_, err := pipeline.Submit(ctx, job)
		assert.ErrorIs(t, err, core.ErrInvalidDocInfo)
	})

	t.Run("empty index name", func(t *testing.T) {
		job := testJob("doc-1", 1)
		job.IndexName = ""
		_, err := pipeline.Submit(ctx, job)
		assert.ErrorIs(t, err, ingest.ErrIndexNameRequired)
	})

	t.Run("empty dataset id", func(t *testing.T) {
		job := testJob("doc-1", 1)
		job.DatasetID = ""
		_, err := pipeline.Submit(ctx, job)
		assert.ErrorIs(t, err, ingest.ErrDatasetIDRequired)
	})
}

func TestPipeline_Submit_MultipleDocuments(t *testing.T) {
	repo := setupTestRepository(t)
	embedder := &testEmbedder{}

	pipeline, err := NewPipeline(repo, embedder, WithPoolSize(2), WithIngestConfig(fastIngestConfig()))
	require.NoError(t, err)
	defer pipeline.Release()

	ctx := context.Background()
	results := make(chan JobResult, 3)

	jobIDs := make(map[string]bool)
	for i := 0; i < 3; i++ {
		job := testJob(fmt.Sprintf("doc-%d", i), 5)
		job.OnDone = func(result JobResult) { results <- result }

		jobID, err := pipeline.Submit(ctx, job)
		require.NoError(t, err)
		assert.False(t, jobIDs[jobID], "job ids must be unique")
		jobIDs[jobID] = true
	}

	totalAdded := 0
	for i := 0; i < 3; i++ {
		result := awaitResult(t, results)
		require.NoError(t, result.Err)
		totalAdded += result.Result.TotalAdded
	}
	assert.Equal(t, 15, totalAdded)

	count, err := repo.CountChunks(ctx, "idx")
	require.NoError(t, err)
	assert.Equal(t, 15, count)
}

func TestPipeline_JobFailureIsolated(t *testing.T) {
	repo := setupTestRepository(t)
	embedder := &testEmbedder{failContaining: "poison"}

	pipeline, err := NewPipeline(repo, embedder, WithPoolSize(1), WithIngestConfig(fastIngestConfig()))
	require.NoError(t, err)
	defer pipeline.Release()

	ctx := context.Background()
	results := make(chan JobResult, 2)
	onDone := func(result JobResult) { results <- result }

	good := testJob("doc-good", 4)
	good.OnDone = onDone

	bad := testJob("doc-poison", 4)
	bad.OnDone = onDone

	_, err = pipeline.Submit(ctx, good)
	require.NoError(t, err)
	_, err = pipeline.Submit(ctx, bad)
	require.NoError(t, err)

	byDoc := make(map[string]JobResult)
	for i := 0; i < 2; i++ {
		result := awaitResult(t, results)
		byDoc[result.Doc.DocumentID] = result
	}

	goodResult := byDoc["doc-good"]
	require.NoError(t, goodResult.Err)
	assert.Equal(t, 4, goodResult.Result.TotalAdded)

	badResult := byDoc["doc-poison"]
	require.NoError(t, badResult.Err, "data failures are reported in the result, not as errors")
	assert.Equal(t, 0, badResult.Result.TotalAdded)
	assert.Equal(t, 4, badResult.Result.TotalFailed)

	count, err := repo.CountChunks(ctx, "idx")
	require.NoError(t, err)
	assert.Equal(t, 4, count, "only the good document's chunks landed")
}

func TestPipeline_ProgressForwarded(t *testing.T) {
	repo := setupTestRepository(t)
	embedder := &testEmbedder{}

	messages := make(chan string, 16)
	pipeline, err := NewPipeline(repo, embedder,
		WithPoolSize(1),
		WithIngestConfig(fastIngestConfig()),
		WithProgress(func(fraction float64, message string) {
			messages <- message
		}))
	require.NoError(t, err)
	defer pipeline.Release()

	results := make(chan JobResult, 1)
	job := testJob("doc-1", 3)
	job.OnDone = func(result JobResult) { results <- result }

	_, err = pipeline.Submit(context.Background(), job)
	require.NoError(t, err)
	awaitResult(t, results)

	require.NotEmpty(t, messages)
	assert.Contains(t, <-messages, "chunks")
}

func TestPipeline_SubmitAfterRelease(t *testing.T) {
	repo := setupTestRepository(t)
	embedder := &testEmbedder{}

	pipeline, err := NewPipeline(repo, embedder)
	require.NoError(t, err)

	pipeline.Release()

	_, err = pipeline.Submit(context.Background(), testJob("doc-1", 1))
	assert.Error(t, err, "a released pipeline accepts no work")
}
