package ingestion

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/sitedex/ai"
	"github.com/poiesic/sitedex/storage"
)

const (
	// DefaultConcurrency is the number of pages fetched and processed
	// simultaneously.
	DefaultConcurrency = 5

	// DefaultFetchTimeout bounds a single page fetch.
	DefaultFetchTimeout = 30 * time.Second

	// DefaultServiceTimeout bounds a single summarization or embedding call.
	DefaultServiceTimeout = 60 * time.Second
)

// Fetcher retrieves the text content of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Stats accumulates counters over a crawl run. Safe for concurrent use.
type Stats struct {
	PagesCrawled atomic.Int64
	PagesFailed  atomic.Int64
	ChunksStored atomic.Int64
	ChunksFailed atomic.Int64
}

// Pipeline orchestrates a crawl: URL fetches run through a bounded worker
// pool, and each fetched page is split, enriched, and stored. A pool slot
// covers the full fetch-and-process lifecycle of one URL, so slow
// processing throttles new fetches.
type Pipeline struct {
	chunks         storage.ChunkRepository
	fetcher        Fetcher
	pool           *ants.Pool
	enricher       *chunkEnricher
	processor      *pageProcessor
	chunkSize      int
	source         string
	dimensions     int
	fetchTimeout   time.Duration
	serviceTimeout time.Duration
	logger         *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithConcurrency sets the maximum number of URLs in flight at once.
// Default is DefaultConcurrency.
func WithConcurrency(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithChunkSize sets the target chunk size in characters.
// Default is DefaultChunkSize.
func WithChunkSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = DefaultChunkSize
		}
		p.chunkSize = size
		return nil
	}
}

// WithSource sets the source tag recorded in chunk metadata for this
// ingestion job.
func WithSource(source string) Option {
	return func(p *Pipeline) error {
		p.source = source
		return nil
	}
}

// WithFetchTimeout bounds each page fetch. Zero disables the timeout.
func WithFetchTimeout(timeout time.Duration) Option {
	return func(p *Pipeline) error {
		p.fetchTimeout = timeout
		return nil
	}
}

// WithServiceTimeout bounds each summarization and embedding call.
// Zero disables the timeout.
func WithServiceTimeout(timeout time.Duration) Option {
	return func(p *Pipeline) error {
		p.serviceTimeout = timeout
		return nil
	}
}

// WithEmbeddingDimensions sets the dimensionality of the zero vector
// stored when embedding fails. Default is ai.DefaultEmbeddingDimensions.
func WithEmbeddingDimensions(dimensions int) Option {
	return func(p *Pipeline) error {
		if dimensions < 1 {
			dimensions = ai.DefaultEmbeddingDimensions
		}
		p.dimensions = dimensions
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new crawl pipeline.
func NewPipeline(
	chunks storage.ChunkRepository,
	provider ai.AIProvider,
	fetcher Fetcher,
	opts ...Option,
) (*Pipeline, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if fetcher == nil {
		return nil, ErrFetcherRequired
	}

	pool, err := ants.NewPool(DefaultConcurrency)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		chunks:         chunks,
		fetcher:        fetcher,
		pool:           pool,
		chunkSize:      DefaultChunkSize,
		dimensions:     ai.DefaultEmbeddingDimensions,
		fetchTimeout:   DefaultFetchTimeout,
		serviceTimeout: DefaultServiceTimeout,
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	// Create collaborators after options so they see final config
	p.enricher = newChunkEnricher(provider, p.dimensions, p.source, p.serviceTimeout, p.logger)
	p.processor = newPageProcessor(chunks, p.enricher, p.chunkSize, p.logger)

	return p, nil
}

// Run crawls the given URLs and blocks until every URL has finished.
// A fetch or processing failure on one URL never cancels or degrades the
// others; failures are counted and logged.
func (p *Pipeline) Run(ctx context.Context, urls []string) (*Stats, error) {
	if len(urls) == 0 {
		return nil, ErrNoURLs
	}

	stats := &Stats{}

	var wg sync.WaitGroup
	for _, url := range urls {
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			p.crawlOne(ctx, url, stats)
		})
		if err != nil {
			// Pool rejected the task (released or overloaded)
			wg.Done()
			p.logger.Error("error submitting crawl task", "url", url, "err", err)
			stats.PagesFailed.Add(1)
		}
	}
	wg.Wait()

	p.logger.Info("crawl complete",
		"crawled", stats.PagesCrawled.Load(),
		"failed", stats.PagesFailed.Load(),
		"chunks_stored", stats.ChunksStored.Load(),
		"chunks_failed", stats.ChunksFailed.Load())

	return stats, nil
}

func (p *Pipeline) crawlOne(ctx context.Context, url string, stats *Stats) {
	fetchCtx := ctx
	if p.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, p.fetchTimeout)
		defer cancel()
	}

	text, err := p.fetcher.Fetch(fetchCtx, url)
	if err != nil {
		p.logger.Error("error fetching page", "url", url, "err", err)
		stats.PagesFailed.Add(1)
		return
	}

	stored, failed := p.processor.process(ctx, url, text)
	stats.ChunksStored.Add(int64(stored))
	stats.ChunksFailed.Add(int64(failed))
	stats.PagesCrawled.Add(1)
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
