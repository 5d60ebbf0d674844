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
	"fmt"
	"io"
	"time"

	"github.com/poiesic/sitedex/ai"
	"github.com/poiesic/sitedex/core"
	"github.com/poiesic/sitedex/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// Source restricts reembedding to one source tag; empty means all
	Source string

	// BatchSize is the number of chunks to embed in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of pages)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// OnlyZeroVectors restricts processing to chunks whose stored vector
	// is the all-zero sentinel written when embedding failed at ingestion
	OnlyZeroVectors bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 10,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder orchestrates the reembedding of indexed page chunks.
type Reembedder struct {
	repo      storage.ChunkRepository
	embedder  ai.Embedder
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *ChunkIterator
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(repo storage.ChunkRepository, embedder ai.Embedder, config *Config, progress io.Writer) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}

	processor := NewBatchProcessor(repo, embedder, config.MaxRetries, config.RetryDelay)
	iterator := NewChunkIterator(repo, config.Source, config.BatchSize)

	return &Reembedder{
		repo:      repo,
		embedder:  embedder,
		config:    config,
		progress:  progress,
		processor: processor,
		iterator:  iterator,
	}
}

// Run executes the reembedding operation. Every chunk selected by the
// configuration is reembedded with the configured embedder. Progress is
// reported to the configured writer.
func (r *Reembedder) Run(ctx context.Context) error {
	urls, err := r.iterator.Pages(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pages: %w", err)
	}

	if len(urls) == 0 {
		fmt.Fprintf(r.progress, "No pages found in database (0 pages)\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d pages (batch size: %d)\n",
		len(urls), r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, len(urls), r.config.ReportInterval)
	tracker.Start()

	pagesSeen := make(map[string]bool)
	processed := 0

	err = r.iterator.ForEach(ctx, func(chunks []*core.PageChunk) error {
		batch := chunks
		if r.config.OnlyZeroVectors {
			batch = filterZeroVectors(chunks)
		}

		if err := r.processor.Process(ctx, batch); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}

		for _, chunk := range chunks {
			pagesSeen[chunk.Url] = true
		}
		if len(pagesSeen) > processed {
			processed = len(pagesSeen)
			tracker.Update(processed)
		}

		return nil
	})

	if err != nil {
		return err
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d pages in %v (%.1f pages/sec)\n",
		len(urls), elapsed.Round(time.Second), float64(len(urls))/elapsed.Seconds())

	return nil
}

// filterZeroVectors keeps only chunks whose vector is absent or all zero.
func filterZeroVectors(chunks []*core.PageChunk) []*core.PageChunk {
	var out []*core.PageChunk
	for _, chunk := range chunks {
		if isZeroVector(chunk.Vector) {
			out = append(out, chunk)
		}
	}
	return out
}

func isZeroVector(v []float32) bool {
	for _, val := range v {
		if val != 0 {
			return false
		}
	}
	return true
}
