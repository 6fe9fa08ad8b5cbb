package ingest

import "errors"

var (
	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrIndexNameRequired is returned when an index name is not provided.
	ErrIndexNameRequired = errors.New("index name required")

	// ErrDatasetIDRequired is returned when a dataset id is not provided.
	ErrDatasetIDRequired = errors.New("dataset id required")
)
