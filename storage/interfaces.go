package storage

import (
	"context"

	"github.com/poiesic/sitedex/core"
)

// ChunkRepository provides operations for managing page chunks.
// Implementations must be thread-safe: the ingestion pipeline issues
// independent concurrent writes and assumes no cross-record ordering.
type ChunkRepository interface {
	// UpsertChunks writes one or more chunks keyed by (url, index).
	// An existing chunk at the same key is overwritten, which makes
	// re-ingesting a page idempotent. Sets InsertedAt on first write and
	// UpdatedAt on every write.
	UpsertChunks(ctx context.Context, chunks ...*core.PageChunk) error

	// GetChunk retrieves a single chunk by its natural key.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, url string, index int) (*core.PageChunk, error)

	// GetPageChunks retrieves all chunks for a page, ordered by index.
	// A non-empty source restricts results to chunks whose metadata carries
	// that source tag; an empty source matches all.
	GetPageChunks(ctx context.Context, url, source string) ([]*core.PageChunk, error)

	// ListPageURLs returns the distinct page URLs that have stored chunks.
	// A non-empty source restricts results to pages ingested under that tag.
	ListPageURLs(ctx context.Context, source string) ([]string, error)

	// DeletePage removes every chunk stored for a page.
	// Returns ErrNotFound if the page has no chunks.
	DeletePage(ctx context.Context, url string) error

	// FindSimilar finds chunks similar to the given vector.
	// Returns chunks with similarity >= minSimilarity, up to limit results,
	// ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.ChunkMatch, error)

	// Close closes the repository and releases resources.
	Close() error
}
