package ingest

import "math"

// BatchSizeController adapts the batch size from run feedback: geometric
// growth on success, proportionate-to-severity shrinking on failure. Not safe
// for concurrent use; each ingestion run owns its own controller.
type BatchSizeController struct {
	current     int
	min         int
	max         int
	adjustments int
}

// NewBatchSizeController creates a controller starting at initial, bounded by
// [min, max]. Out-of-range arguments are clamped.
func NewBatchSizeController(initial, min, max int) *BatchSizeController {
	if min < 1 {
		min = 1
	}
	if max < min {
		max = min
	}
	if initial < min {
		initial = min
	}
	if initial > max {
		initial = max
	}

	return &BatchSizeController{
		current: initial,
		min:     min,
		max:     max,
	}
}

// Size returns the batch size to use for the next batch.
func (c *BatchSizeController) Size() int {
	return c.current
}

// Adjustments returns how many times the size actually changed.
func (c *BatchSizeController) Adjustments() int {
	return c.adjustments
}

// OnSuccess grows the batch size by 20%, capped at the maximum.
func (c *BatchSizeController) OnSuccess() {
	next := int(math.Round(float64(c.current) * 1.2))
	if next > c.max {
		next = c.max
	}
	c.set(next)
}

// OnFailure shrinks the batch size according to the failure kind. Memory
// exhaustion halves it; rate limiting trims 20%; every other kind leaves the
// size alone.
func (c *BatchSizeController) OnFailure(kind ErrorKind) {
	switch kind {
	case OutOfMemory:
		next := c.current / 2
		if next < c.min {
			next = c.min
		}
		c.set(next)
	case RateLimited:
		next := int(math.Round(float64(c.current) * 0.8))
		if next < c.min {
			next = c.min
		}
		c.set(next)
	}
}

// set applies a new size, counting only real changes.
func (c *BatchSizeController) set(next int) {
	if next == c.current {
		return
	}
	c.current = next
	c.adjustments++
}
