package pipeline

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/indexit/ai"
	"github.com/poiesic/indexit/core"
	"github.com/poiesic/indexit/ingest"
	"github.com/poiesic/indexit/storage"
)

// Pipeline orchestrates concurrent ingestion of documents.
// Each submitted job runs a full ingestion on a pooled worker.
type Pipeline struct {
	store        storage.ChunkRepository
	embedder     ai.Embedder
	pool         *ants.Pool
	ingestConfig ingest.Config
	progress     ingest.ProgressFunc
	logger       *slog.Logger
}

// Job describes one document to ingest.
type Job struct {
	Doc       core.DocInfo
	IndexName string
	DatasetID string
	Chunks    []core.ChunkRequest

	// OnDone, if set, is called from the worker goroutine when the job
	// finishes, successfully or not.
	OnDone func(JobResult)
}

// JobResult reports the outcome of one job.
type JobResult struct {
	JobID     string
	Doc       core.DocInfo
	IndexName string
	Result    *ingest.Result
	Err       error
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent ingestion.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}

		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithIngestConfig sets the engine configuration applied to every job.
// Default is ingest.DefaultConfig().
func WithIngestConfig(config ingest.Config) Option {
	return func(p *Pipeline) error {
		if err := config.Validate(); err != nil {
			return err
		}
		p.ingestConfig = config
		return nil
	}
}

// WithProgress sets a progress callback passed to every job's engine run.
// With a pool size above one, callbacks from different jobs interleave.
func WithProgress(fn ingest.ProgressFunc) Option {
	return func(p *Pipeline) error {
		p.progress = fn
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(store storage.ChunkRepository, embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if store == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		store:        store,
		embedder:     embedder,
		pool:         pool,
		ingestConfig: ingest.DefaultConfig(),
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Submit validates a job and enqueues it, returning the assigned job id.
// Submit blocks while all workers are busy. The context governs the whole
// run, including time spent waiting for a worker's attention.
func (p *Pipeline) Submit(ctx context.Context, job Job) (string, error) {
	if err := core.ValidateDocInfo(&job.Doc); err != nil {
		return "", err
	}
	if job.IndexName == "" {
		return "", ingest.ErrIndexNameRequired
	}
	if job.DatasetID == "" {
		return "", ingest.ErrDatasetIDRequired
	}

	jobID := uuid.NewString()
	logger := p.logger.With("jobId", jobID, "document", job.Doc.DocumentID, "index", job.IndexName)

	err := p.pool.Submit(func() {
		p.runJob(ctx, jobID, job, logger)
	})
	if err != nil {
		return "", err
	}

	return jobID, nil
}

// runJob executes one ingestion on a worker. Each job gets its own engine so
// batch sizing adapts per document.
func (p *Pipeline) runJob(ctx context.Context, jobID string, job Job, logger *slog.Logger) {
	ing, err := ingest.New(p.store, p.embedder, p.ingestConfig,
		ingest.WithLogger(logger),
		ingest.WithProgress(p.progress))

	var result *ingest.Result
	if err == nil {
		result, err = ing.Run(ctx, job.Chunks, job.Doc, job.IndexName, job.DatasetID)
	}

	if err != nil {
		logger.Error("ingestion job failed", "err", err)
	} else {
		logger.Info("ingestion job complete",
			"added", result.TotalAdded,
			"failed", result.TotalFailed,
			"batches", result.Stats.BatchCount)
	}

	if job.OnDone != nil {
		job.OnDone(JobResult{
			JobID:     jobID,
			Doc:       job.Doc,
			IndexName: job.IndexName,
			Result:    result,
			Err:       err,
		})
	}
}

// Release releases the worker pool. In-flight jobs finish; the pipeline must
// not be used afterwards.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
