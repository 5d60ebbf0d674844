// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reembed

import (
	"context"

	"github.com/poiesic/sitedex/core"
	"github.com/poiesic/sitedex/storage"
)

const (
	// DefaultBatchSize is the default number of chunks sent to the
	// embedding service per call.
	DefaultBatchSize = 100
)

// ChunkIterator walks every indexed page and yields its chunks in batches.
type ChunkIterator struct {
	repo      storage.ChunkRepository
	source    string
	batchSize int
}

// NewChunkIterator creates a new chunk iterator over all pages of a source.
// An empty source iterates every page in the database.
// batchSize: maximum chunks per batch (must be > 0)
func NewChunkIterator(repo storage.ChunkRepository, source string, batchSize int) *ChunkIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &ChunkIterator{
		repo:      repo,
		source:    source,
		batchSize: batchSize,
	}
}

// Pages returns the URLs the iterator will visit.
func (it *ChunkIterator) Pages(ctx context.Context) ([]string, error) {
	return it.repo.ListPageURLs(ctx, it.source)
}

// ForEach iterates over all chunks, calling fn for each batch. A page's
// chunks may span batches, but batches never exceed batchSize. Iteration
// stops on the first error from fn. Context cancellation is checked
// between pages.
func (it *ChunkIterator) ForEach(ctx context.Context, fn func([]*core.PageChunk) error) error {
	urls, err := it.Pages(ctx)
	if err != nil {
		return err
	}

	var batch []*core.PageChunk

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := fn(batch)
		batch = nil
		return err
	}

	for _, url := range urls {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		chunks, err := it.repo.GetPageChunks(ctx, url, it.source)
		if err != nil {
			return err
		}

		for _, chunk := range chunks {
			batch = append(batch, chunk)
			if len(batch) >= it.batchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
	}

	return flush()
}
