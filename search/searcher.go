package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/sitedex/ai"
	"github.com/poiesic/sitedex/core"
	"github.com/poiesic/sitedex/storage"
)

// defaultMinSimilarity filters out weak matches from similarity search.
const defaultMinSimilarity = 0.60

// Searcher provides semantic retrieval over stored page chunks.
type Searcher struct {
	chunks        storage.ChunkRepository
	embedder      ai.Embedder
	minSimilarity float32
	logger        *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMinSimilarity sets the similarity threshold below which matches are
// discarded. Default is 0.60.
func WithMinSimilarity(minSimilarity float32) Option {
	return func(s *Searcher) error {
		s.minSimilarity = minSimilarity
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	chunks storage.ChunkRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Searcher, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		chunks:        chunks,
		embedder:      provider.Embedder(),
		minSimilarity: defaultMinSimilarity,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// FindRelevant searches for chunks relevant to the query.
// Returns up to maxHits results, ranked by similarity.
func (s *Searcher) FindRelevant(ctx context.Context, query string, maxHits int) ([]*core.ChunkMatch, error) {
	return s.FindRelevantWithMonitor(ctx, query, maxHits, nil)
}

// FindRelevantWithMonitor searches with observation hooks.
// The monitor receives callbacks at each stage of the search.
func (s *Searcher) FindRelevantWithMonitor(ctx context.Context, query string, maxHits int, monitor SearchMonitor) ([]*core.ChunkMatch, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}
	monitor.AfterQueryEmbedding(embedding)

	matches, err := s.chunks.FindSimilar(ctx, embedding, s.minSimilarity, maxHits)
	if err != nil {
		s.logger.Error("error querying for similar chunks", "err", err)
		return nil, err
	}

	monitor.Finish(matches)
	return matches, nil
}

// ListPages returns the distinct page URLs ingested under a source tag.
// An empty source lists pages across all sources.
func (s *Searcher) ListPages(ctx context.Context, source string) ([]string, error) {
	return s.chunks.ListPageURLs(ctx, source)
}

// PageContent reassembles the full text of a page from its stored chunks,
// in original order, headed by the page title.
func (s *Searcher) PageContent(ctx context.Context, url string) (string, error) {
	chunks, err := s.chunks.GetPageChunks(ctx, url, "")
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return "", ErrPageNotFound
	}

	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(pageTitle(chunks[0].Title))
	b.WriteString("\n\n")
	for i, chunk := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(chunk.Content)
	}
	return b.String(), nil
}

// pageTitle reduces a chunk title like "Agents - Part 2" to its page-level
// prefix.
func pageTitle(title string) string {
	if i := strings.Index(title, " - "); i > 0 {
		return title[:i]
	}
	return title
}
