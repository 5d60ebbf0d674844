package reembed

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/sitedex/ai/mock"
	"github.com/poiesic/sitedex/core"
	"github.com/poiesic/sitedex/storage"
	"github.com/poiesic/sitedex/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) storage.ChunkRepository {
	t.Helper()
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close(); backend.Close() })
	return repo
}

func seedChunk(t *testing.T, repo storage.ChunkRepository, url string, index int, vector []float32) {
	t.Helper()
	err := repo.UpsertChunks(context.Background(), &core.PageChunk{
		Url:     url,
		Index:   index,
		Title:   "title",
		Summary: "summary",
		Content: fmt.Sprintf("content %s %d", url, index),
		Metadata: core.ChunkMetadata{
			Source:    "docs",
			CrawledAt: time.Now().UTC(),
		},
		Vector: vector,
	})
	require.NoError(t, err)
}

func TestChunkIteratorBatches(t *testing.T) {
	repo := newTestRepo(t)

	for p := 0; p < 3; p++ {
		url := fmt.Sprintf("https://docs.example.com/p%d/", p)
		for i := 0; i < 4; i++ {
			seedChunk(t, repo, url, i, []float32{1, 0})
		}
	}

	it := NewChunkIterator(repo, "docs", 5)

	var batches [][]*core.PageChunk
	err := it.ForEach(context.Background(), func(chunks []*core.PageChunk) error {
		batches = append(batches, chunks)
		return nil
	})
	require.NoError(t, err)

	total := 0
	for _, batch := range batches {
		assert.LessOrEqual(t, len(batch), 5)
		total += len(batch)
	}
	assert.Equal(t, 12, total)
}

func TestReembedderRegeneratesVectors(t *testing.T) {
	repo := newTestRepo(t)

	seedChunk(t, repo, "https://docs.example.com/a/", 0, []float32{1, 0})
	seedChunk(t, repo, "https://docs.example.com/a/", 1, []float32{0, 1})
	seedChunk(t, repo, "https://docs.example.com/b/", 0, []float32{1, 1})

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{2, 0, 0}
		}
		return out, nil
	}

	var progress bytes.Buffer
	r := NewReembedder(repo, embedder, nil, &progress)
	require.NoError(t, r.Run(context.Background()))

	ctx := context.Background()
	for _, key := range []struct {
		url   string
		index int
	}{
		{"https://docs.example.com/a/", 0},
		{"https://docs.example.com/a/", 1},
		{"https://docs.example.com/b/", 0},
	} {
		chunk, err := repo.GetChunk(ctx, key.url, key.index)
		require.NoError(t, err)
		// New vectors are normalized before storage
		assert.Equal(t, []float32{1, 0, 0}, chunk.Vector)
	}

	assert.Contains(t, progress.String(), "Reembedding complete")
}

func TestReembedderOnlyZeroVectors(t *testing.T) {
	repo := newTestRepo(t)

	seedChunk(t, repo, "https://docs.example.com/ok/", 0, []float32{0.6, 0.8})
	seedChunk(t, repo, "https://docs.example.com/broken/", 0, []float32{0, 0})

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{0, 5}
		}
		return out, nil
	}

	config := DefaultConfig()
	config.OnlyZeroVectors = true

	var progress bytes.Buffer
	r := NewReembedder(repo, embedder, config, &progress)
	require.NoError(t, r.Run(context.Background()))

	ctx := context.Background()

	repaired, err := repo.GetChunk(ctx, "https://docs.example.com/broken/", 0)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, repaired.Vector)

	untouched, err := repo.GetChunk(ctx, "https://docs.example.com/ok/", 0)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.6, 0.8}, untouched.Vector)
}

func TestReembedderEmptyDatabase(t *testing.T) {
	repo := newTestRepo(t)

	var progress bytes.Buffer
	r := NewReembedder(repo, mock.NewMockEmbedder(), nil, &progress)
	require.NoError(t, r.Run(context.Background()))

	assert.Contains(t, progress.String(), "No pages found")
}
