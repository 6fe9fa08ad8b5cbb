package badger

import (
	"fmt"

	"github.com/poiesic/indexit/core"
)

// Key prefixes for different data types
const (
	chunkPrefix    = "chunk"
	chunkDocPrefix = "chunkdoc"
)

// makeChunkKey generates a primary key for a chunk by index name and ID.
// Format: chunk:index:id
func makeChunkKey(indexName string, id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%s:%d", chunkPrefix, indexName, id))
}

// makeChunkScanPrefix generates the iteration prefix covering all chunks of an index.
// The trailing separator keeps sibling prefixes (chunkdoc) out of the scan.
func makeChunkScanPrefix(indexName string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", chunkPrefix, indexName))
}

// makeChunkDocKey generates a composite key for the document index.
// Format: chunkdoc:index:documentID:id
func makeChunkDocKey(indexName, documentID string, id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s:%d", chunkDocPrefix, indexName, documentID, id))
}

// makeChunkDocScanPrefix generates the iteration prefix covering one document's
// index entries.
func makeChunkDocScanPrefix(indexName, documentID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s:", chunkDocPrefix, indexName, documentID))
}
