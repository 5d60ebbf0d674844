package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/sitedex/ai/mock"
	"github.com/poiesic/sitedex/storage"
	"github.com/poiesic/sitedex/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testFetcher implements Fetcher for testing. It tracks the maximum number
// of fetches in flight at once so tests can assert the concurrency bound.
type testFetcher struct {
	pages  map[string]string
	failOn map[string]bool
	delay  time.Duration

	mu          sync.Mutex
	inFlight    int
	maxInFlight int
}

func (f *testFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	if f.failOn[url] {
		return "", errors.New("fetch failed")
	}
	page, ok := f.pages[url]
	if !ok {
		return "", errors.New("unknown page")
	}
	return page, nil
}

func newTestPipeline(t *testing.T, fetcher Fetcher, opts ...Option) (*Pipeline, storage.ChunkRepository) {
	t.Helper()

	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)

	base := []Option{WithEmbeddingDimensions(4), WithServiceTimeout(0), WithFetchTimeout(0)}
	p, err := NewPipeline(repo, mock.NewMockProvider(), fetcher, append(base, opts...)...)
	require.NoError(t, err)

	t.Cleanup(func() {
		p.Release()
		repo.Close()
		backend.Close()
	})
	return p, repo
}

func TestNewPipelineValidation(t *testing.T) {
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	defer func() { repo.Close(); backend.Close() }()

	fetcher := &testFetcher{}

	_, err = NewPipeline(nil, mock.NewMockProvider(), fetcher)
	assert.ErrorIs(t, err, ErrChunkRepositoryRequired)

	_, err = NewPipeline(repo, nil, fetcher)
	assert.ErrorIs(t, err, ErrAIProviderRequired)

	_, err = NewPipeline(repo, mock.NewMockProvider(), nil)
	assert.ErrorIs(t, err, ErrFetcherRequired)
}

func TestRunRequiresURLs(t *testing.T) {
	p, _ := newTestPipeline(t, &testFetcher{})

	_, err := p.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoURLs)
}

func TestRunStoresChunksForEveryPage(t *testing.T) {
	fetcher := &testFetcher{pages: map[string]string{
		"https://docs.example.com/a/": "Page A content with a sentence. And another one.",
		"https://docs.example.com/b/": "Page B content is here. It has text.",
	}}
	p, repo := newTestPipeline(t, fetcher, WithSource("example_docs"))

	stats, err := p.Run(context.Background(), []string{
		"https://docs.example.com/a/",
		"https://docs.example.com/b/",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.PagesCrawled.Load())
	assert.Equal(t, int64(0), stats.PagesFailed.Load())
	assert.Equal(t, int64(2), stats.ChunksStored.Load())

	ctx := context.Background()
	chunk, err := repo.GetChunk(ctx, "https://docs.example.com/a/", 0)
	require.NoError(t, err)
	assert.Equal(t, "example_docs", chunk.Metadata.Source)
	assert.NotEmpty(t, chunk.Title)
	assert.NotEmpty(t, chunk.Vector)

	urls, err := repo.ListPageURLs(ctx, "example_docs")
	require.NoError(t, err)
	assert.Len(t, urls, 2)
}

func TestRunFailureIsolation(t *testing.T) {
	// B fails among {A, B, C}: A and C are stored, B has no record,
	// and the run still completes.
	fetcher := &testFetcher{
		pages: map[string]string{
			"https://docs.example.com/a/": "Content of page A. More text follows here.",
			"https://docs.example.com/c/": "Content of page C. More text follows here.",
		},
		failOn: map[string]bool{"https://docs.example.com/b/": true},
	}

	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	defer func() { repo.Close(); backend.Close() }()

	p, err := NewPipeline(repo, mock.NewMockProvider(), fetcher,
		WithConcurrency(2), WithEmbeddingDimensions(4), WithSource("docs"))
	require.NoError(t, err)
	defer p.Release()

	stats, err := p.Run(context.Background(), []string{
		"https://docs.example.com/a/",
		"https://docs.example.com/b/",
		"https://docs.example.com/c/",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.PagesCrawled.Load())
	assert.Equal(t, int64(1), stats.PagesFailed.Load())

	ctx := context.Background()
	for _, url := range []string{"https://docs.example.com/a/", "https://docs.example.com/c/"} {
		chunks, err := repo.GetPageChunks(ctx, url, "")
		require.NoError(t, err)
		assert.NotEmpty(t, chunks, "expected chunks for %s", url)
	}

	chunks, err := repo.GetPageChunks(ctx, "https://docs.example.com/b/", "")
	require.NoError(t, err)
	assert.Empty(t, chunks, "failed page must have no records")
}

func TestRunCompletesWhenAllFetchesFail(t *testing.T) {
	fetcher := &testFetcher{failOn: map[string]bool{
		"https://docs.example.com/a/": true,
		"https://docs.example.com/b/": true,
	}}
	p, _ := newTestPipeline(t, fetcher)

	stats, err := p.Run(context.Background(), []string{
		"https://docs.example.com/a/",
		"https://docs.example.com/b/",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(0), stats.PagesCrawled.Load())
	assert.Equal(t, int64(2), stats.PagesFailed.Load())
	assert.Equal(t, int64(0), stats.ChunksStored.Load())
}

func TestRunRespectsConcurrencyBound(t *testing.T) {
	pages := make(map[string]string)
	var urls []string
	for i := 0; i < 8; i++ {
		url := fmt.Sprintf("https://docs.example.com/p%d/", i)
		pages[url] = fmt.Sprintf("Content of page %d. Short text.", i)
		urls = append(urls, url)
	}

	fetcher := &testFetcher{pages: pages, delay: 20 * time.Millisecond}
	p, _ := newTestPipeline(t, fetcher, WithConcurrency(2))

	stats, err := p.Run(context.Background(), urls)
	require.NoError(t, err)

	assert.Equal(t, int64(8), stats.PagesCrawled.Load())
	assert.LessOrEqual(t, fetcher.maxInFlight, 2,
		"no more than 2 URLs may be in flight at once")
}
