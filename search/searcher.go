package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/poiesic/indexit/ai"
	"github.com/poiesic/indexit/core"
	"github.com/poiesic/indexit/storage"
)

const (
	// defaultLimit is the maximum number of hits returned unless overridden.
	defaultLimit = 10

	// defaultMinScore filters out weak similarity matches.
	defaultMinScore float32 = 0.60

	// verbatimBoost is added when every query word appears in a chunk's
	// content or annotations.
	verbatimBoost float32 = 0.3
)

// Searcher provides semantic search over ingested chunks.
type Searcher struct {
	store    storage.ChunkRepository
	embedder ai.Embedder
	limit    int
	minScore float32
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithLimit sets the maximum number of results returned per query.
// Default is 10.
func WithLimit(limit int) Option {
	return func(s *Searcher) error {
		if limit < 1 {
			limit = defaultLimit
		}
		s.limit = limit
		return nil
	}
}

// WithMinScore sets the similarity threshold below which matches are dropped.
// Default is 0.60.
func WithMinScore(minScore float32) Option {
	return func(s *Searcher) error {
		s.minScore = minScore
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(store storage.ChunkRepository, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if store == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		store:    store,
		embedder: embedder,
		limit:    defaultLimit,
		minScore: defaultMinScore,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// FindSimilar searches an index for chunks similar to the query.
// Results are ranked by similarity, with a fixed boost for chunks that
// contain every query word verbatim.
func (s *Searcher) FindSimilar(ctx context.Context, indexName, query string) ([]*core.SearchResult, error) {
	if indexName == "" {
		return nil, ErrIndexNameRequired
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	start := time.Now()

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	results, err := s.store.FindSimilar(ctx, indexName, embedding, s.minScore, s.limit)
	if err != nil {
		s.logger.Error("error querying for similar chunks", "err", err)
		return nil, err
	}

	boosted := false
	for _, result := range results {
		if matchesAllQueryWords(result.Chunk, query) {
			result.Score += verbatimBoost
			boosted = true
		}
	}
	if boosted {
		sort.Slice(results, func(i, j int) bool {
			return results[i].Score > results[j].Score
		})
	}

	s.logger.Debug("search complete",
		"index", indexName,
		"query", query,
		"hits", len(results),
		"elapsed", time.Since(start))

	return results, nil
}
