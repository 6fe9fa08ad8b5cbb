package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/indexit/ai"
)

// embeddingStage wraps the embedder with transient-failure retry. Retries are
// a bounded iterative loop drawing on the batch's shared attempt budget;
// non-transient failures propagate immediately to the batch loop.
type embeddingStage struct {
	embedder ai.Embedder
	backoff  BackoffPolicy
	logger   *slog.Logger
}

// embed requests vectors for texts, preserving input order in the output.
// The returned cost is the token cost of the successful attempt.
func (s *embeddingStage) embed(ctx context.Context, texts []string, att *attemptBudget) ([][]float32, int, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		vectors, cost, err := s.embedder.EmbedTexts(ctx, texts)
		if err == nil {
			if len(vectors) != len(texts) {
				return nil, 0, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), len(vectors))
			}
			return vectors, cost, nil
		}

		kind := Classify(err)
		if !kind.Transient() {
			return nil, 0, err
		}
		if !att.spend() {
			return nil, 0, fmt.Errorf("embedding failed after %d attempts: %w", att.failures, err)
		}

		s.logger.Debug("embedding attempt failed, retrying",
			"kind", kind, "failures", att.failures, "error", err)

		if err := sleepContext(ctx, s.backoff.Delay(att.failures-1)); err != nil {
			return nil, 0, err
		}
	}
}
