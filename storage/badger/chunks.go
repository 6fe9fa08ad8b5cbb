package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/indexit/core"
	"github.com/poiesic/indexit/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository on top of an open backend.
func NewChunkRepository(backend *Backend) (storage.ChunkRepository, error) {
	if backend == nil || backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	return &ChunkRepository{backend: backend}, nil
}

// Close releases repository resources. The underlying backend is closed
// separately by its owner.
func (r *ChunkRepository) Close() error {
	return nil
}

// AddChunks adds one or more processed chunks to an index. Each chunk is
// stamped with the dataset ID and the insertion time. Chunk IDs are derived
// from content, so re-adding a chunk overwrites the existing record.
func (r *ChunkRepository) AddChunks(ctx context.Context, indexName, datasetID string, chunks ...*core.ProcessedChunk) error {
	if indexName == "" {
		return storage.ErrEmptyIndexName
	}
	if len(chunks) == 0 {
		return nil
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			chunk.DatasetID = datasetID
			chunk.InsertedAt = time.Now().UTC()

			// Store primary record
			key := makeChunkKey(indexName, chunk.Id)
			value := storage.MarshalProcessedChunk(chunk)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Update document index
			docKey := makeChunkDocKey(indexName, chunk.DocumentID, chunk.Id)
			if err := tx.Set(docKey, storage.MarshalID(chunk.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetChunk retrieves a single chunk by ID.
func (r *ChunkRepository) GetChunk(ctx context.Context, indexName string, id core.ID) (*core.ProcessedChunk, error) {
	var result *core.ProcessedChunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeChunkKey(indexName, id)
		var err error
		result, err = r.readChunk(tx, key)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// DeleteChunksByDocument removes all chunks belonging to a document and
// returns the number removed. A document with no chunks is not an error.
func (r *ChunkRepository) DeleteChunksByDocument(ctx context.Context, indexName, documentID string) (int, error) {
	deleted := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		ids, err := r.collectDocumentChunkIDs(tx, indexName, documentID)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		for _, id := range ids {
			// Delete from document index
			if err := tx.Delete(makeChunkDocKey(indexName, documentID, id)); err != nil {
				return err
			}
			// Delete primary record
			if err := tx.Delete(makeChunkKey(indexName, id)); err != nil {
				return err
			}
		}
		deleted = len(ids)
		return tx.Commit()
	}, true)

	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// CountChunks returns the number of chunks stored in an index.
func (r *ChunkRepository) CountChunks(ctx context.Context, indexName string) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkScanPrefix(indexName)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)

	if err != nil {
		return 0, err
	}
	return count, nil
}

// FindSimilar finds chunks similar to the given vector by scanning the index.
func (r *ChunkRepository) FindSimilar(ctx context.Context, indexName string, vector []float32, minScore float32, limit int) ([]*core.SearchResult, error) {
	var results []*core.SearchResult

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkScanPrefix(indexName)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.ProcessedChunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalProcessedChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk == nil {
				continue
			}

			// Skip chunks without embeddings
			if len(chunk.Vector) == 0 {
				continue
			}

			// Cosine similarity (dot product for normalized vectors)
			score := dotProduct(vector, chunk.Vector)
			if score >= minScore {
				results = append(results, &core.SearchResult{
					Chunk: chunk,
					Score: score,
				})
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortFunc(results, func(a, b *core.SearchResult) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// Helper methods

// readChunk reads a chunk from the transaction.
func (r *ChunkRepository) readChunk(tx *badger.Txn, key []byte) (*core.ProcessedChunk, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var chunk *core.ProcessedChunk
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		chunk, unmarshalErr = storage.UnmarshalProcessedChunk(val)
		return unmarshalErr
	})
	return chunk, err
}

// collectDocumentChunkIDs gathers the chunk IDs indexed under a document.
// The iterator must be closed before the caller mutates the transaction, so
// IDs are collected up front.
func (r *ChunkRepository) collectDocumentChunkIDs(tx *badger.Txn, indexName, documentID string) ([]core.ID, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makeChunkDocScanPrefix(indexName, documentID)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var ids []core.ID
	for iter.Rewind(); iter.Valid(); iter.Next() {
		var id core.ID
		if err := iter.Item().Value(func(val []byte) error {
			var err error
			id, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
