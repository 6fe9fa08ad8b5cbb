package ingest

import (
	"math/rand/v2"
	"time"
)

// maxBackoffShift caps the exponential growth so absurd attempt counts cannot
// overflow the delay arithmetic.
const maxBackoffShift = 20

// BackoffPolicy computes retry delays: exponential growth from a base delay
// plus up to half the base of additive jitter, so concurrent retriers spread
// out instead of stampeding in lockstep.
type BackoffPolicy struct {
	Base time.Duration
}

// Delay returns the wait before retry attempt (zero-based):
// Base * 2^attempt + uniform_random(0, Base/2).
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > maxBackoffShift {
		attempt = maxBackoffShift
	}

	delay := p.Base * (1 << uint(attempt))
	if half := p.Base / 2; half > 0 {
		delay += time.Duration(rand.Int64N(int64(half)))
	}
	return delay
}
