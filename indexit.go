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


package indexit

import (
	"log/slog"

	"github.com/poiesic/indexit/ai"
	"github.com/poiesic/indexit/ai/openai"
	"github.com/poiesic/indexit/ingest"
	"github.com/poiesic/indexit/pipeline"
	"github.com/poiesic/indexit/search"
	"github.com/poiesic/indexit/storage"
	"github.com/poiesic/indexit/storage/badger"
)

// Index bundles the storage backend, chunk repository and embedding client
// behind a single handle. It is the entry point for embedding applications.
type Index struct {
	backend      *badger.Backend
	chunks       storage.ChunkRepository
	embedder     ai.Embedder
	ingestConfig ingest.Config
	logger       *slog.Logger
}

// Option configures an Index.
type Option func(*indexOptions)

type indexOptions struct {
	inMemory     bool
	aiConfig     *ai.Config
	ingestConfig ingest.Config
	logger       *slog.Logger
}

// WithInMemory opens the storage backend in memory instead of on disk.
// The file path passed to New is ignored. Intended for tests and
// short-lived tooling.
func WithInMemory() Option {
	return func(o *indexOptions) {
		o.inMemory = true
	}
}

// WithAIConfig sets the embedding service configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(config *ai.Config) Option {
	return func(o *indexOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithIngestConfig sets the batching configuration used by ingesters and
// pipelines created from this Index. Default is ingest.DefaultConfig().
func WithIngestConfig(config ingest.Config) Option {
	return func(o *indexOptions) {
		o.ingestConfig = config
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *indexOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New opens an Index at the given file path, creating it if necessary.
// The returned Index owns the backend and repository and must be closed
// with Close when no longer needed.
func New(filePath string, opts ...Option) (*Index, error) {
	// Apply options
	options := &indexOptions{
		aiConfig:     ai.DefaultConfig(),
		ingestConfig: ingest.DefaultConfig(),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if err := options.ingestConfig.Validate(); err != nil {
		return nil, err
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	// Create chunk repository
	chunks, err := badger.NewChunkRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	// Create embedder with configured settings
	embedder, err := openai.NewEmbedder(options.aiConfig)
	if err != nil {
		chunks.Close()
		backend.Close()
		return nil, err
	}

	// Apply outbound rate limiting when the config asks for it
	if options.aiConfig.RequestsPerSecond > 0 {
		embedder, err = ai.NewRateLimitedEmbedder(embedder, options.aiConfig.RequestsPerSecond, options.aiConfig.Burst)
		if err != nil {
			chunks.Close()
			backend.Close()
			return nil, err
		}
	}

	return &Index{
		backend:      backend,
		chunks:       chunks,
		embedder:     embedder,
		ingestConfig: options.ingestConfig,
		logger:       options.logger,
	}, nil
}

func (idx *Index) Close() error {
	// Close repository before the backend it writes through
	if err := idx.chunks.Close(); err != nil {
		idx.logger.Error("error closing chunk repository", "err", err)
		return err
	}

	// Close backend
	if err := idx.backend.Close(); err != nil {
		idx.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (idx *Index) Chunks() storage.ChunkRepository {
	return idx.chunks
}

func (idx *Index) Embedder() ai.Embedder {
	return idx.embedder
}

func (idx *Index) NewIngester(opts ...ingest.Option) (*ingest.Ingester, error) {
	return ingest.New(idx.chunks, idx.embedder, idx.ingestConfig, opts...)
}

func (idx *Index) NewPipeline(opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	merged := append([]pipeline.Option{pipeline.WithIngestConfig(idx.ingestConfig)}, opts...)
	return pipeline.NewPipeline(idx.chunks, idx.embedder, merged...)
}

func (idx *Index) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(idx.chunks, idx.embedder, opts...)
}
