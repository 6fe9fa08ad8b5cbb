package ai

import (
	"context"
	"errors"

	"golang.org/x/time/rate"
)

// RateLimitedEmbedder wraps an Embedder with a token-bucket limit on outbound
// requests. Each EmbedText or EmbedTexts call consumes one permit; a batch
// counts as a single request against the limit.
type RateLimitedEmbedder struct {
	inner  Embedder
	bucket *rate.Limiter
}

var _ Embedder = (*RateLimitedEmbedder)(nil)

// NewRateLimitedEmbedder wraps inner so that at most rps requests per second
// are sent upstream, allowing bursts of the given size. Burst values below 1
// are raised to 1.
func NewRateLimitedEmbedder(inner Embedder, rps float64, burst int) (Embedder, error) {
	if inner == nil {
		return nil, errors.New("rate limited embedder: inner embedder is required")
	}
	if rps <= 0 {
		// No limit requested, nothing to wrap.
		return inner, nil
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedEmbedder{
		inner:  inner,
		bucket: rate.NewLimiter(rate.Limit(rps), burst),
	}, nil
}

// EmbedText waits for a permit and delegates to the wrapped embedder.
func (r *RateLimitedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := r.bucket.Wait(ctx); err != nil {
		return nil, err
	}
	return r.inner.EmbedText(ctx, text)
}

// EmbedTexts waits for a permit and delegates to the wrapped embedder.
func (r *RateLimitedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, int, error) {
	if err := r.bucket.Wait(ctx); err != nil {
		return nil, 0, err
	}
	return r.inner.EmbedTexts(ctx, texts)
}
