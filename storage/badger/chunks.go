package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/sitedex/core"
	"github.com/poiesic/sitedex/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) (*ChunkRepository, error) {
	return &ChunkRepository{backend: backend}, nil
}

// Close releases repository resources.
// Currently a no-op; chunk keys are content-derived and need no sequence.
func (r *ChunkRepository) Close() error {
	return nil
}

// UpsertChunks writes chunks keyed by (url, index), overwriting any
// existing chunk at the same key.
func (r *ChunkRepository) UpsertChunks(ctx context.Context, chunks ...*core.PageChunk) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			if err := core.ValidatePageChunk(chunk); err != nil {
				return err
			}

			key := makeChunkKey(chunk.Url, chunk.Index)

			// Preserve the original insertion time across overwrites
			now := time.Now().UTC()
			old, err := r.readChunk(tx, key)
			if err != nil {
				return err
			}
			if old != nil {
				chunk.InsertedAt = old.InsertedAt
			} else {
				chunk.InsertedAt = now
			}
			chunk.UpdatedAt = now

			value := storage.MarshalPageChunk(chunk)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Update the page catalog so the URL is listable by source
			catalogKey := makePageURLKey(chunk.Metadata.Source, chunk.Url)
			if err := tx.Set(catalogKey, []byte(chunk.Url)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetChunk retrieves a single chunk by its natural key.
func (r *ChunkRepository) GetChunk(ctx context.Context, url string, index int) (*core.PageChunk, error) {
	var result *core.PageChunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeChunkKey(url, index)
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

// GetPageChunks retrieves all chunks for a page, ordered by index.
func (r *ChunkRepository) GetPageChunks(ctx context.Context, url, source string) ([]*core.PageChunk, error) {
	var results []*core.PageChunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePageChunkPrefix(url)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.PageChunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalPageChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk == nil {
				continue
			}
			// Key hashes can collide across URLs; keep exact matches only
			if chunk.Url != url {
				continue
			}
			if source != "" && chunk.Metadata.Source != source {
				continue
			}
			results = append(results, chunk)
		}
		return nil
	}, false)

	return results, err
}

// ListPageURLs returns the distinct page URLs stored under a source tag.
func (r *ChunkRepository) ListPageURLs(ctx context.Context, source string) ([]string, error) {
	seen := make(map[string]bool)
	var urls []string
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePageURLPrefix(source)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				url := string(val)
				if !seen[url] {
					seen[url] = true
					urls = append(urls, url)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)

	return urls, err
}

// DeletePage removes every chunk stored for a page, along with its catalog
// entries.
func (r *ChunkRepository) DeletePage(ctx context.Context, url string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		var keys [][]byte
		sources := make(map[string]bool)

		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePageChunkPrefix(url)
		iter := tx.NewIterator(opts)

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.PageChunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalPageChunk(val)
				return err
			})
			if err != nil {
				iter.Close()
				return err
			}
			if chunk == nil || chunk.Url != url {
				continue
			}
			keys = append(keys, iter.Item().KeyCopy(nil))
			sources[chunk.Metadata.Source] = true
		}
		iter.Close()

		if len(keys) == 0 {
			return storage.ErrNotFound
		}

		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		for source := range sources {
			if err := tx.Delete(makePageURLKey(source, url)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// FindSimilar finds chunks similar to the given vector.
func (r *ChunkRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.ChunkMatch, error) {
	var results []*core.ChunkMatch

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.PageChunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalPageChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk == nil || len(chunk.Vector) == 0 {
				continue
			}

			// Cosine similarity (dot product for normalized vectors)
			similarity := dotProduct(vector, chunk.Vector)

			if similarity >= minSimilarity {
				results = append(results, &core.ChunkMatch{
					Chunk: chunk,
					Score: similarity,
				})
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortFunc(results, func(a, b *core.ChunkMatch) int {
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

// readChunk reads a chunk record from the transaction.
// Returns nil without error when the key doesn't exist.
func (r *ChunkRepository) readChunk(tx *badger.Txn, key []byte) (*core.PageChunk, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var chunk *core.PageChunk
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		chunk, unmarshalErr = storage.UnmarshalPageChunk(val)
		return unmarshalErr
	})
	return chunk, err
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
