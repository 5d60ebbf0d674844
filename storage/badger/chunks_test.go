package badger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/sitedex/core"
	"github.com/poiesic/sitedex/storage"
)

func newTestChunk(url string, index int, source string) *core.PageChunk {
	return &core.PageChunk{
		Url:     url,
		Index:   index,
		Title:   fmt.Sprintf("Title %d", index),
		Summary: fmt.Sprintf("Summary for chunk %d", index),
		Content: fmt.Sprintf("Content of chunk %d on %s", index, url),
		Metadata: core.ChunkMetadata{
			Source:    source,
			Size:      42,
			CrawledAt: time.Now().UTC(),
			URLPath:   "/docs/",
		},
		Vector: []float32{1, 0, 0},
	}
}

func TestChunkUpsertAndGet(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() { repo.Close(); backend.Close() }()

	ctx := context.Background()

	chunk := newTestChunk("https://example.com/docs/", 0, "example_docs")
	if err := repo.UpsertChunks(ctx, chunk); err != nil {
		t.Fatalf("Failed to upsert chunk: %v", err)
	}

	if chunk.InsertedAt.IsZero() || chunk.UpdatedAt.IsZero() {
		t.Fatal("Expected timestamps to be set on upsert")
	}

	retrieved, err := repo.GetChunk(ctx, chunk.Url, 0)
	if err != nil {
		t.Fatalf("Failed to get chunk: %v", err)
	}
	if retrieved.Content != chunk.Content {
		t.Fatalf("Expected content %q, got %q", chunk.Content, retrieved.Content)
	}
	if retrieved.Title != chunk.Title {
		t.Fatalf("Expected title %q, got %q", chunk.Title, retrieved.Title)
	}

	_, err = repo.GetChunk(ctx, chunk.Url, 99)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for missing index, got %v", err)
	}
}

func TestChunkUpsertOverwritesSameKey(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() { repo.Close(); backend.Close() }()

	ctx := context.Background()
	url := "https://example.com/guide/"

	first := newTestChunk(url, 0, "example_docs")
	if err := repo.UpsertChunks(ctx, first); err != nil {
		t.Fatalf("Failed to upsert first version: %v", err)
	}
	insertedAt := first.InsertedAt

	time.Sleep(2 * time.Millisecond)

	second := newTestChunk(url, 0, "example_docs")
	second.Content = "Revised content after re-crawl"
	if err := repo.UpsertChunks(ctx, second); err != nil {
		t.Fatalf("Failed to upsert second version: %v", err)
	}

	chunks, err := repo.GetPageChunks(ctx, url, "")
	if err != nil {
		t.Fatalf("Failed to get page chunks: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk after overwrite, got %d", len(chunks))
	}
	if chunks[0].Content != "Revised content after re-crawl" {
		t.Fatalf("Expected revised content, got %q", chunks[0].Content)
	}
	if !chunks[0].InsertedAt.Equal(insertedAt) {
		t.Fatal("Expected InsertedAt to survive overwrite")
	}
	if !chunks[0].UpdatedAt.After(insertedAt) {
		t.Fatal("Expected UpdatedAt to advance on overwrite")
	}
}

func TestChunkValidationRejected(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() { repo.Close(); backend.Close() }()

	ctx := context.Background()

	bad := newTestChunk("", 0, "example_docs")
	err = repo.UpsertChunks(ctx, bad)
	if !errors.Is(err, core.ErrEmptyURL) {
		t.Fatalf("Expected ErrEmptyURL, got %v", err)
	}
}

func TestGetPageChunksOrdered(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() { repo.Close(); backend.Close() }()

	ctx := context.Background()
	url := "https://example.com/long-page/"

	// Insert out of order; reads must come back index-ordered
	for _, idx := range []int{3, 0, 2, 1} {
		if err := repo.UpsertChunks(ctx, newTestChunk(url, idx, "example_docs")); err != nil {
			t.Fatalf("Failed to upsert chunk %d: %v", idx, err)
		}
	}

	chunks, err := repo.GetPageChunks(ctx, url, "")
	if err != nil {
		t.Fatalf("Failed to get page chunks: %v", err)
	}
	if len(chunks) != 4 {
		t.Fatalf("Expected 4 chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if chunk.Index != i {
			t.Fatalf("Expected index %d at position %d, got %d", i, i, chunk.Index)
		}
	}
}

func TestGetPageChunksSourceFilter(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() { repo.Close(); backend.Close() }()

	ctx := context.Background()
	url := "https://example.com/shared/"

	if err := repo.UpsertChunks(ctx, newTestChunk(url, 0, "docs_a")); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	chunks, err := repo.GetPageChunks(ctx, url, "docs_b")
	if err != nil {
		t.Fatalf("Failed to get page chunks: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("Expected no chunks for other source, got %d", len(chunks))
	}

	chunks, err = repo.GetPageChunks(ctx, url, "docs_a")
	if err != nil {
		t.Fatalf("Failed to get page chunks: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk for matching source, got %d", len(chunks))
	}
}

func TestListPageURLs(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() { repo.Close(); backend.Close() }()

	ctx := context.Background()

	// Two chunks of the same page must yield one catalog entry
	if err := repo.UpsertChunks(ctx,
		newTestChunk("https://example.com/a/", 0, "docs_a"),
		newTestChunk("https://example.com/a/", 1, "docs_a"),
		newTestChunk("https://example.com/b/", 0, "docs_a"),
		newTestChunk("https://other.dev/c/", 0, "docs_b"),
	); err != nil {
		t.Fatalf("Failed to upsert chunks: %v", err)
	}

	urls, err := repo.ListPageURLs(ctx, "docs_a")
	if err != nil {
		t.Fatalf("Failed to list URLs: %v", err)
	}
	if len(urls) != 2 {
		t.Fatalf("Expected 2 URLs for docs_a, got %d: %v", len(urls), urls)
	}

	all, err := repo.ListPageURLs(ctx, "")
	if err != nil {
		t.Fatalf("Failed to list all URLs: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 URLs across sources, got %d: %v", len(all), all)
	}
}

func TestDeletePage(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() { repo.Close(); backend.Close() }()

	ctx := context.Background()
	url := "https://example.com/doomed/"

	if err := repo.UpsertChunks(ctx,
		newTestChunk(url, 0, "docs_a"),
		newTestChunk(url, 1, "docs_a"),
		newTestChunk("https://example.com/kept/", 0, "docs_a"),
	); err != nil {
		t.Fatalf("Failed to upsert chunks: %v", err)
	}

	if err := repo.DeletePage(ctx, url); err != nil {
		t.Fatalf("Failed to delete page: %v", err)
	}

	chunks, err := repo.GetPageChunks(ctx, url, "")
	if err != nil {
		t.Fatalf("Failed to get page chunks: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("Expected no chunks after delete, got %d", len(chunks))
	}

	urls, err := repo.ListPageURLs(ctx, "docs_a")
	if err != nil {
		t.Fatalf("Failed to list URLs: %v", err)
	}
	if len(urls) != 1 || urls[0] != "https://example.com/kept/" {
		t.Fatalf("Expected only the kept page in catalog, got %v", urls)
	}

	if err := repo.DeletePage(ctx, url); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound deleting absent page, got %v", err)
	}
}

func TestFindSimilar(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() { repo.Close(); backend.Close() }()

	ctx := context.Background()

	near := newTestChunk("https://example.com/near/", 0, "docs_a")
	near.Vector = []float32{0.9, 0.1, 0}
	far := newTestChunk("https://example.com/far/", 0, "docs_a")
	far.Vector = []float32{0, 0, 1}
	failed := newTestChunk("https://example.com/failed/", 0, "docs_a")
	failed.Vector = []float32{}

	if err := repo.UpsertChunks(ctx, near, far, failed); err != nil {
		t.Fatalf("Failed to upsert chunks: %v", err)
	}

	matches, err := repo.FindSimilar(ctx, []float32{1, 0, 0}, 0.5, 10)
	if err != nil {
		t.Fatalf("Failed to find similar: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("Expected 1 match above threshold, got %d", len(matches))
	}
	if matches[0].Chunk.Url != "https://example.com/near/" {
		t.Fatalf("Expected near chunk, got %s", matches[0].Chunk.Url)
	}

	// Zero threshold still excludes chunks without a usable vector
	matches, err = repo.FindSimilar(ctx, []float32{1, 0, 0}, 0, 10)
	if err != nil {
		t.Fatalf("Failed to find similar: %v", err)
	}
	for _, m := range matches {
		if m.Chunk.Url == "https://example.com/failed/" {
			t.Fatal("Vectorless chunk must not be matched")
		}
	}

	// Limit caps the result set
	matches, err = repo.FindSimilar(ctx, []float32{1, 1, 1}, -10, 1)
	if err != nil {
		t.Fatalf("Failed to find similar: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("Expected limit of 1 to apply, got %d", len(matches))
	}
}
