package storage

import (
	"context"

	"github.com/poiesic/indexit/core"
)

// ChunkRepository provides operations for managing embedded chunks.
// Implementations must be thread-safe and support concurrent access.
// All operations are scoped to an index name.
type ChunkRepository interface {
	// AddChunks adds one or more processed chunks to an index.
	// Chunks carry content-derived IDs, so re-adding a chunk overwrites the
	// existing record instead of duplicating it.
	// Sets the dataset ID and the InsertedAt timestamp on each chunk.
	AddChunks(ctx context.Context, indexName, datasetID string, chunks ...*core.ProcessedChunk) error

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, indexName string, id core.ID) (*core.ProcessedChunk, error)

	// DeleteChunksByDocument removes all chunks belonging to a document.
	// Returns the number of chunks removed. Removing a document that has no
	// chunks is not an error.
	DeleteChunksByDocument(ctx context.Context, indexName, documentID string) (int, error)

	// CountChunks returns the number of chunks stored in an index.
	CountChunks(ctx context.Context, indexName string) (int, error)

	// FindSimilar finds chunks similar to the given vector.
	// Returns chunks with similarity >= minScore, up to limit results.
	// Results are ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, indexName string, vector []float32, minScore float32, limit int) ([]*core.SearchResult, error)

	// Close closes the repository and releases resources.
	Close() error
}
