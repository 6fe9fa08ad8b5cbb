package ingest

import (
	"errors"
	"time"
)

// Config controls one ingestion engine instance.
type Config struct {
	// InitialBatchSize is the batch size the controller starts from.
	InitialBatchSize int

	// MinBatchSize bounds downward adjustment. Sizes of 1 or 2 stall the
	// 20% growth step, so the default floor is 4.
	MinBatchSize int

	// MaxBatchSize bounds upward adjustment.
	MaxBatchSize int

	// MaxRetries is the failed-attempt budget shared by all retries of one
	// batch, wherever in the pipeline the failures occur.
	MaxRetries int

	// RetryBaseDelay is the base for exponential backoff between attempts.
	RetryBaseDelay time.Duration

	// BatchPause is a fixed pause after each successful batch, throttling
	// load on downstream services.
	BatchPause time.Duration

	// InsertGroupSize bounds how many chunks are written to storage in a
	// single call.
	InsertGroupSize int

	// MaxConcurrentEmbeddings is reserved control surface for a future
	// parallel execution path. Validated but not enforced: batches run
	// strictly sequentially.
	MaxConcurrentEmbeddings int

	// MaxConcurrentInserts is reserved control surface, like
	// MaxConcurrentEmbeddings.
	MaxConcurrentInserts int
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		InitialBatchSize:        16,
		MinBatchSize:            4,
		MaxBatchSize:            64,
		MaxRetries:              5,
		RetryBaseDelay:          1 * time.Second,
		BatchPause:              100 * time.Millisecond,
		InsertGroupSize:         4,
		MaxConcurrentEmbeddings: 1,
		MaxConcurrentInserts:    1,
	}
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if c.MinBatchSize < 1 {
		return errors.New("ingest config: MinBatchSize must be at least 1")
	}
	if c.MaxBatchSize < c.MinBatchSize {
		return errors.New("ingest config: MaxBatchSize must not be less than MinBatchSize")
	}
	if c.InitialBatchSize < c.MinBatchSize || c.InitialBatchSize > c.MaxBatchSize {
		return errors.New("ingest config: InitialBatchSize must be between MinBatchSize and MaxBatchSize")
	}
	if c.MaxRetries < 0 {
		return errors.New("ingest config: MaxRetries must not be negative")
	}
	if c.RetryBaseDelay < 0 {
		return errors.New("ingest config: RetryBaseDelay must not be negative")
	}
	if c.BatchPause < 0 {
		return errors.New("ingest config: BatchPause must not be negative")
	}
	if c.InsertGroupSize < 1 {
		return errors.New("ingest config: InsertGroupSize must be at least 1")
	}
	if c.MaxConcurrentEmbeddings < 1 {
		return errors.New("ingest config: MaxConcurrentEmbeddings must be at least 1")
	}
	if c.MaxConcurrentInserts < 1 {
		return errors.New("ingest config: MaxConcurrentInserts must be at least 1")
	}
	return nil
}
