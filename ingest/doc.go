// Package ingest implements adaptive batch ingestion of content chunks into
// an embedded vector index.
//
// The engine slices its input into batches sized by a feedback controller,
// embeds a document/content text pair per chunk, blends the resulting vectors,
// and persists the processed chunks through a chunk repository. Transient
// failures are retried with exponential backoff and jitter. Each batch carries
// a bounded attempt budget; a batch that exhausts it is marked failed without
// aborting the run, and the final result accounts for every submitted chunk.
package ingest
