package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for stored chunks.
// It is derived from chunk content so that resubmitting the same chunk
// overwrites the existing record instead of duplicating it.
type ID uint64

// ChunkID generates a deterministic ID for a chunk from its owning document
// and its content using BLAKE2b hashing. Identical content in different
// documents produces distinct IDs.
func ChunkID(documentID, content string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(documentID))
	h.Write([]byte{0})
	h.Write([]byte(content))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ChunkRequest is one unit of ingestion input: the text to embed plus
// optional retrieval annotations. Immutable once submitted.
type ChunkRequest struct {
	Content           string
	ImportantKeywords []string // Keywords that boost retrieval (optional)
	Questions         []string // Questions this chunk answers (optional)
}

// DocInfo identifies the document a set of chunks belongs to.
// It is supplied once per ingestion run and never modified by the engine.
type DocInfo struct {
	DocumentID   string
	DatasetID    string
	DocumentName string
}

// ProcessedChunk is a ChunkRequest after embedding: it carries the generated
// ID, the owning document identity, and the blended embedding vector.
// Never mutated after creation.
type ProcessedChunk struct {
	Id                ID
	Content           string
	DocumentID        string
	DatasetID         string
	DocumentName      string
	ImportantKeywords []string
	Questions         []string
	Vector            []float32 // Blended embedding vector
	VectorDim         int       // Dimensionality of Vector
	InsertedAt        time.Time // When the chunk was written to the store
}

// SearchResult represents a search result with the full chunk and relevance score.
type SearchResult struct {
	Chunk *ProcessedChunk
	Score float32
}
