// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/indexit/ai"
	"github.com/poiesic/indexit/core"
	"github.com/poiesic/indexit/storage"
)

// Ingester runs adaptive batch ingestion of chunks into an index. A single
// Ingester may serve many runs; each run owns its own statistics and batch
// size controller.
type Ingester struct {
	store    storage.ChunkRepository
	embedder ai.Embedder
	config   Config
	logger   *slog.Logger
	progress ProgressFunc
}

// Option configures an Ingester.
type Option func(*Ingester) error

// WithLogger sets a custom logger.
// Default is slog.Default() scoped to the ingester component.
func WithLogger(logger *slog.Logger) Option {
	return func(ing *Ingester) error {
		if logger == nil {
			logger = slog.Default()
		}
		ing.logger = logger
		return nil
	}
}

// WithProgress sets a callback receiving run progress. May be nil.
func WithProgress(fn ProgressFunc) Option {
	return func(ing *Ingester) error {
		ing.progress = fn
		return nil
	}
}

// New creates an Ingester. The chunk repository and embedder are the only I/O
// boundaries and must be supplied by the caller.
func New(store storage.ChunkRepository, embedder ai.Embedder, config Config, opts ...Option) (*Ingester, error) {
	if store == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	ing := &Ingester{
		store:    store,
		embedder: embedder,
		config:   config,
		logger:   slog.Default().With("component", "ingester"),
	}

	for _, opt := range opts {
		if err := opt(ing); err != nil {
			return nil, err
		}
	}

	return ing, nil
}

// Run ingests chunks belonging to one document into the named index.
//
// The returned error is non-nil only for entry-point validation failures or
// context cancellation. Data failures never abort the run: a batch that
// exhausts its attempt budget marks its chunks failed and the run moves on,
// so the caller always receives a Result accounting for every chunk.
func (ing *Ingester) Run(ctx context.Context, chunks []core.ChunkRequest, doc core.DocInfo, indexName, datasetID string) (*Result, error) {
	if err := core.ValidateDocInfo(&doc); err != nil {
		return nil, err
	}
	if indexName == "" {
		return nil, ErrIndexNameRequired
	}
	if datasetID == "" {
		return nil, ErrDatasetIDRequired
	}

	backoff := BackoffPolicy{Base: ing.config.RetryBaseDelay}
	run := &ingestionRun{
		config:     ing.config,
		logger:     ing.logger,
		doc:        doc,
		indexName:  indexName,
		datasetID:  datasetID,
		chunks:     chunks,
		stats:      newRunStatistics(len(chunks)),
		controller: NewBatchSizeController(ing.config.InitialBatchSize, ing.config.MinBatchSize, ing.config.MaxBatchSize),
		backoff:    backoff,
		embed:      &embeddingStage{embedder: ing.embedder, backoff: backoff, logger: ing.logger},
		index:      &indexingStage{store: ing.store, backoff: backoff, groupSize: ing.config.InsertGroupSize, logger: ing.logger},
		progress:   &monotonicProgress{fn: ing.progress},
	}

	return run.run(ctx)
}

// Run is a one-call convenience around New and (*Ingester).Run using the
// default configuration. onProgress may be nil.
func Run(ctx context.Context, store storage.ChunkRepository, embedder ai.Embedder, chunks []core.ChunkRequest, doc core.DocInfo, indexName, datasetID string, onProgress ProgressFunc) (*Result, error) {
	ing, err := New(store, embedder, DefaultConfig(), WithProgress(onProgress))
	if err != nil {
		return nil, err
	}
	return ing.Run(ctx, chunks, doc, indexName, datasetID)
}

// ingestionRun holds the state owned by one run: statistics, controller,
// stages, and the progress guard. Single flow of control; batches are
// processed strictly sequentially.
type ingestionRun struct {
	config     Config
	logger     *slog.Logger
	doc        core.DocInfo
	indexName  string
	datasetID  string
	chunks     []core.ChunkRequest
	stats      *runStatistics
	controller *BatchSizeController
	backoff    BackoffPolicy
	embed      *embeddingStage
	index      *indexingStage
	progress   *monotonicProgress
}

func (r *ingestionRun) run(ctx context.Context) (*Result, error) {
	total := len(r.chunks)
	if total == 0 {
		return r.stats.finalize(r.controller.Size(), r.controller.Adjustments()), nil
	}

	r.logger.Info("starting ingestion",
		"chunks", total,
		"index", r.indexName,
		"dataset", r.datasetID,
		"batchSize", r.controller.Size())

	for offset := 0; offset < total; {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// The controller determines the size at the start of every batch.
		end := offset + r.controller.Size()
		if end > total {
			end = total
		}

		if err := r.processBatch(ctx, r.chunks[offset:end]); err != nil {
			return nil, err
		}
		offset = end

		if offset < total {
			if err := sleepContext(ctx, r.config.BatchPause); err != nil {
				return nil, err
			}
		}
	}

	r.reportFinal()

	result := r.stats.finalize(r.controller.Size(), r.controller.Adjustments())
	r.logger.Info("ingestion complete",
		"added", result.TotalAdded,
		"failed", result.TotalFailed,
		"batches", result.Stats.BatchCount,
		"retries", result.Stats.RetryCount,
		"cost", result.Stats.EmbeddingCost)
	return result, nil
}

// processBatch drives one batch to a terminal state. The returned error is
// non-nil only when the whole run must stop (context cancellation); a batch
// that exhausts its budget is recorded as failed and absorbed here.
func (r *ingestionRun) processBatch(ctx context.Context, batch []core.ChunkRequest) error {
	r.stats.batches++

	att := newAttemptBudget(r.config.MaxRetries)
	defer func() { r.stats.retries += att.failures }()

	for {
		err := r.attemptBatch(ctx, batch, att)
		if err == nil {
			r.stats.added += len(batch)
			r.controller.OnSuccess()
			r.reportProcessed()
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		kind := Classify(err)
		r.controller.OnFailure(kind)

		// Transient failures already spent the budget inside a stage;
		// everything else spends it here.
		var retry bool
		if kind.Transient() {
			retry = att.remaining()
		} else {
			retry = att.spend()
		}

		if !retry {
			r.logger.Warn("batch failed permanently",
				"chunks", len(batch),
				"kind", kind,
				"failures", att.failures,
				"error", err)
			r.stats.failed += len(batch)
			return nil
		}

		r.logger.Debug("retrying batch",
			"chunks", len(batch), "kind", kind, "failures", att.failures)

		if err := sleepContext(ctx, r.backoff.Delay(att.failures-1)); err != nil {
			return err
		}
	}
}

// attemptBatch performs one embed-blend-index cycle for a batch.
func (r *ingestionRun) attemptBatch(ctx context.Context, batch []core.ChunkRequest, att *attemptBudget) error {
	// Each chunk contributes a text pair: the document name and the chunk
	// content. Positional pairing below relies on the embedder preserving
	// input order.
	texts := make([]string, 0, len(batch)*2)
	for _, chunk := range batch {
		texts = append(texts, r.doc.DocumentName, chunk.Content)
	}

	vectors, cost, err := r.embed.embed(ctx, texts, att)
	if err != nil {
		return err
	}

	processed := make([]*core.ProcessedChunk, len(batch))
	for i, chunk := range batch {
		blended := BlendVectors(vectors[2*i], vectors[2*i+1])
		processed[i] = &core.ProcessedChunk{
			Id:                core.ChunkID(r.doc.DocumentID, chunk.Content),
			Content:           chunk.Content,
			DocumentID:        r.doc.DocumentID,
			DatasetID:         r.datasetID,
			DocumentName:      r.doc.DocumentName,
			ImportantKeywords: chunk.ImportantKeywords,
			Questions:         chunk.Questions,
			Vector:            blended,
			VectorDim:         len(blended),
		}
	}

	err = r.index.index(ctx, r.indexName, r.datasetID, processed, att, func(written int) {
		r.reportIndexing(written)
	})
	if err != nil {
		return err
	}

	r.stats.cost += cost
	return nil
}

// reportIndexing credits partially indexed chunks of the in-flight batch.
func (r *ingestionRun) reportIndexing(written int) {
	done := r.stats.added + written
	fraction := float64(done) / float64(r.stats.requested)
	r.progress.report(fraction, fmt.Sprintf("indexed %d/%d chunks", done, r.stats.requested))
}

// reportProcessed reports overall progress after a batch reaches a terminal
// state. Failed chunks contribute nothing to the fraction.
func (r *ingestionRun) reportProcessed() {
	resolved := r.stats.added + r.stats.failed
	fraction := float64(r.stats.added) / float64(r.stats.requested)
	r.progress.report(fraction, fmt.Sprintf("processed %d/%d chunks", resolved, r.stats.requested))
}

func (r *ingestionRun) reportFinal() {
	fraction := float64(r.stats.added) / float64(r.stats.requested)
	r.progress.report(fraction, fmt.Sprintf("complete: %d added, %d failed", r.stats.added, r.stats.failed))
}
