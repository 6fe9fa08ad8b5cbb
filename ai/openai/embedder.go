package openai

import (
	"context"
	"log/slog"

	"github.com/pkoukk/tiktoken-go"
	"github.com/poiesic/indexit/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// tokenEncoding is the BPE encoding used for token cost accounting.
// cl100k_base matches the OpenAI embedding model family; for local models it
// is still a reasonable proxy for billing-style cost figures.
const tokenEncoding = "cl100k_base"

// Embedder implements ai.Embedder using OpenAI-compatible embedding APIs.
type Embedder struct {
	embedder embeddings.Embedder
	encoding *tiktoken.Tiktoken
	logger   *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Create OpenAI client configured for embeddings
	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}

	// Wrap in langchaingo embedder
	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "openai-embedder")

	// Token counting is best-effort: loading the encoding may need a one-time
	// download, and a missing encoding falls back to a length estimate.
	encoding, err := tiktoken.GetEncoding(tokenEncoding)
	if err != nil {
		logger.Warn("token encoding unavailable, using length estimate", "encoding", tokenEncoding, "err", err)
		encoding = nil
	}

	return &Embedder{
		embedder: embedder,
		encoding: encoding,
		logger:   logger,
	}, nil
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("generating embedding for single text", "length", len(text))

	embeddings, err := e.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		e.logger.Error("failed to generate embedding", "err", err)
		return nil, err
	}

	if len(embeddings) == 0 {
		e.logger.Warn("embedder returned empty result")
		return []float32{}, nil
	}

	return embeddings[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings in a batch
// and reports the token cost of the request.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, int, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	embeddings, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, 0, err
	}

	return embeddings, e.countTokens(texts), nil
}

// countTokens sums the token count of all texts using the configured encoding,
// falling back to a chars/4 estimate when no encoding is loaded.
func (e *Embedder) countTokens(texts []string) int {
	total := 0
	for _, text := range texts {
		if e.encoding != nil {
			total += len(e.encoding.Encode(text, nil, nil))
		} else {
			total += len(text)/4 + 1
		}
	}
	return total
}
