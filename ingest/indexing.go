package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/indexit/core"
	"github.com/poiesic/indexit/storage"
)

// groupReportInterval is how many insert groups pass between progress
// callbacks. A sampling policy to bound reporting overhead, not a
// correctness requirement.
const groupReportInterval = 4

// indexingStage writes processed chunks to the store in fixed-size groups,
// bounding the size of any single write. It applies the same retry discipline
// as the embedding stage, per attempt of the whole call: a failed group
// aborts the attempt and the retry restarts from the first group.
// Content-derived chunk IDs make the rewrite idempotent.
type indexingStage struct {
	store     storage.ChunkRepository
	backoff   BackoffPolicy
	groupSize int
	logger    *slog.Logger
}

// index writes chunks strictly in order. onGroup, if non-nil, receives the
// number of chunks written so far after every fourth group boundary.
func (s *indexingStage) index(ctx context.Context, indexName, datasetID string, chunks []*core.ProcessedChunk, att *attemptBudget, onGroup func(written int)) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := s.writeGroups(ctx, indexName, datasetID, chunks, onGroup)
		if err == nil {
			return nil
		}

		kind := Classify(err)
		if !kind.Transient() {
			return err
		}
		if !att.spend() {
			return fmt.Errorf("indexing failed after %d attempts: %w", att.failures, err)
		}

		s.logger.Debug("indexing attempt failed, retrying",
			"kind", kind, "failures", att.failures, "error", err)

		if err := sleepContext(ctx, s.backoff.Delay(att.failures-1)); err != nil {
			return err
		}
	}
}

// writeGroups performs one full write attempt.
func (s *indexingStage) writeGroups(ctx context.Context, indexName, datasetID string, chunks []*core.ProcessedChunk, onGroup func(written int)) error {
	group := 0
	for start := 0; start < len(chunks); start += s.groupSize {
		end := start + s.groupSize
		if end > len(chunks) {
			end = len(chunks)
		}

		if err := s.store.AddChunks(ctx, indexName, datasetID, chunks[start:end]...); err != nil {
			return err
		}

		group++
		if onGroup != nil && group%groupReportInterval == 0 {
			onGroup(end)
		}
	}
	return nil
}
