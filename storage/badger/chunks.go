package badger

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/lectern-app/lectern/core"
	"github.com/lectern-app/lectern/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
// Chunk records are keyed by (documentID, index), so a prefix scan over
// one document yields its chunks in index order without sorting.
type ChunkRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) (*ChunkRepository, error) {
	idSeq, err := backend.GetSequence(chunkIDSeq)
	if err != nil {
		return nil, err
	}

	return &ChunkRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *ChunkRepository) Close() error {
	return r.idSeq.Release()
}

// ReplaceDocumentChunks atomically replaces every chunk of a document.
// Chunks must be indexed contiguously from 0; a retry that re-runs
// chunking therefore never appends to a partial prior attempt.
func (r *ChunkRepository) ReplaceDocumentChunks(ctx context.Context, documentID core.ID, chunks []*core.Chunk) ([]*core.Chunk, error) {
	for i, chunk := range chunks {
		if chunk.Index != i {
			return nil, storage.ErrChunkOrder
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if err := deleteChunks(tx, documentID); err != nil {
			return err
		}

		now := time.Now().UTC()
		for _, chunk := range chunks {
			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			chunk.Id = core.ID(nextID)
			chunk.DocumentId = documentID
			chunk.CreatedAt = now

			key := makeChunkKey(documentID, chunk.Index)
			if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return chunks, err
}

// GetDocumentChunks retrieves all chunks of a document in index order.
func (r *ChunkRepository) GetDocumentChunks(ctx context.Context, documentID core.ID) ([]*core.Chunk, error) {
	var results []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialChunkKey(documentID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk != nil {
				results = append(results, chunk)
			}
		}
		return nil
	}, false)

	return results, err
}

// DeleteDocumentChunks removes every chunk of a document. Deleting for a
// document that has no chunks is not an error.
func (r *ChunkRepository) DeleteDocumentChunks(ctx context.Context, documentID core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := deleteChunks(tx, documentID); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// UpdateChunkVectors overwrites the embedding vectors of existing chunks
// in place. Used by reindexing; ingestion goes through
// ReplaceDocumentChunks.
func (r *ChunkRepository) UpdateChunkVectors(ctx context.Context, chunks ...*core.Chunk) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			key := makeChunkKey(chunk.DocumentId, chunk.Index)
			stored, err := readChunk(tx, key)
			if err != nil {
				return err
			}
			if stored == nil || stored.Id != chunk.Id {
				return storage.ErrNotFound
			}

			stored.Vector = chunk.Vector
			if err := tx.Set(key, storage.MarshalChunk(stored)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// SearchSimilar returns up to k chunks from the scoped documents, ranked
// by cosine similarity to the query vector descending, ties broken by
// ascending chunk index, then ascending document id. An empty scope
// searches every document.
func (r *ChunkRepository) SearchSimilar(ctx context.Context, scope []core.ID, vector []float32, k int) ([]*core.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}

	var results []*core.ScoredChunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefixes := make([][]byte, 0, max(len(scope), 1))
		if len(scope) == 0 {
			prefixes = append(prefixes, []byte(chunkRecordPrefix+":"))
		} else {
			for _, documentID := range scope {
				prefixes = append(prefixes, makePartialChunkKey(documentID))
			}
		}

		for _, prefix := range prefixes {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			iter := tx.NewIterator(opts)

			for iter.Rewind(); iter.Valid(); iter.Next() {
				var chunk *core.Chunk
				err := iter.Item().Value(func(val []byte) error {
					var err error
					chunk, err = storage.UnmarshalChunk(val)
					return err
				})
				if err != nil {
					iter.Close()
					return err
				}
				if chunk == nil || len(chunk.Vector) == 0 {
					continue
				}

				score := core.CosineSimilarity(vector, chunk.Vector)
				results = append(results, &core.ScoredChunk{
					Chunk: chunk,
					Score: score,
				})
			}
			iter.Close()
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	// Sort by similarity descending; equal scores by ascending chunk
	// index, then ascending document id, so results are deterministic
	// even across documents.
	slices.SortFunc(results, func(a, b *core.ScoredChunk) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		if a.Chunk.Index != b.Chunk.Index {
			return a.Chunk.Index - b.Chunk.Index
		}
		return cmp.Compare(a.Chunk.DocumentId, b.Chunk.DocumentId)
	})

	if len(results) > k {
		results = results[:k]
	}

	return results, nil
}

// deleteChunks removes every chunk key of a document inside tx.
func deleteChunks(tx *badger.Txn, documentID core.ID) error {
	prefix := makePartialChunkKey(documentID)

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)

	var keys [][]byte
	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	iter.Close()

	for _, key := range keys {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// readChunk reads a chunk from the transaction.
func readChunk(tx *badger.Txn, key []byte) (*core.Chunk, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var chunk *core.Chunk
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		chunk, unmarshalErr = storage.UnmarshalChunk(val)
		return unmarshalErr
	})
	return chunk, err
}
