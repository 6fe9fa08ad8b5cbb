package ingest

import (
	"fmt"
	"io"
)

// ProgressFunc receives ingestion progress as a completion fraction in
// [0.0, 1.0] and a short human-readable message. Fractions reported by the
// engine never decrease; permanently failed chunks contribute nothing, so the
// final call carries the run's true completion fraction.
type ProgressFunc func(fraction float64, message string)

// monotonicProgress clamps fractions to [0, 1] and drops regressions so that
// batch retries never replay partial indexing credit backwards.
type monotonicProgress struct {
	fn   ProgressFunc
	last float64
}

func (m *monotonicProgress) report(fraction float64, message string) {
	if m.fn == nil {
		return
	}

	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	if fraction < m.last {
		fraction = m.last
	}
	m.last = fraction

	m.fn(fraction, message)
}

// WriterProgress returns a ProgressFunc that renders carriage-return progress
// lines to w, typically os.Stderr.
func WriterProgress(w io.Writer) ProgressFunc {
	return func(fraction float64, message string) {
		fmt.Fprintf(w, "\rIngesting: %s (%.1f%%)", message, fraction*100.0)
	}
}
