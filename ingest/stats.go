package ingest

import "time"

// Statistics describes one completed ingestion run.
type Statistics struct {
	// TotalRequested is the number of chunks submitted to the run.
	TotalRequested int
	// FinalBatchSize is the controller's batch size when the run ended.
	FinalBatchSize int
	// BatchCount is the number of batches processed.
	BatchCount int
	// EmbeddingCost is the accumulated token cost of successful batches.
	EmbeddingCost int
	// ElapsedSeconds is the wall-clock duration of the run.
	ElapsedSeconds float64
	// SuccessRate is the percentage of submitted chunks that were added.
	SuccessRate float64
	// RetryCount is the total number of failed attempts across all batches.
	RetryCount int
	// BatchAdjustments is how many times the batch size changed.
	BatchAdjustments int
}

// Result is the terminal output of an ingestion run. Every submitted chunk is
// accounted for: TotalAdded + TotalFailed equals the number of chunks given.
type Result struct {
	TotalAdded  int
	TotalFailed int
	Stats       Statistics
}

// runStatistics accumulates counters for one run. Owned exclusively by the
// run that created it; a future parallel execution path must add its own
// synchronization.
type runStatistics struct {
	requested int
	added     int
	failed    int
	batches   int
	cost      int
	retries   int
	startedAt time.Time
}

func newRunStatistics(requested int) *runStatistics {
	return &runStatistics{
		requested: requested,
		startedAt: time.Now(),
	}
}

// finalize freezes the accumulator into a Result. An empty run reports a 100%
// success rate: nothing was asked for and nothing failed.
func (s *runStatistics) finalize(finalBatchSize, adjustments int) *Result {
	successRate := 100.0
	if s.requested > 0 {
		successRate = float64(s.added) / float64(s.requested) * 100.0
	}

	return &Result{
		TotalAdded:  s.added,
		TotalFailed: s.failed,
		Stats: Statistics{
			TotalRequested:   s.requested,
			FinalBatchSize:   finalBatchSize,
			BatchCount:       s.batches,
			EmbeddingCost:    s.cost,
			ElapsedSeconds:   time.Since(s.startedAt).Seconds(),
			SuccessRate:      successRate,
			RetryCount:       s.retries,
			BatchAdjustments: adjustments,
		},
	}
}
