// Package pipeline provides document-level fan-out for chunk ingestion.
//
// The Pipeline type runs one ingestion per submitted document on a bounded
// worker pool. Each job gets its own engine run, so batch sizing and
// statistics never bleed between documents. Job failures are logged and
// reported through the optional completion callback; they do not affect other
// jobs.
package pipeline
