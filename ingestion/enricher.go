package ingestion

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/poiesic/sitedex/ai"
	"github.com/poiesic/sitedex/core"
)

const (
	// Sentinel values stored when an enrichment call fails. Records keep
	// a uniform shape so downstream reads never see missing fields.
	errorTitle   = "Error processing title"
	errorSummary = "Error processing summary"

	// summaryExcerptLimit bounds how much chunk text is sent to the
	// summarization service.
	summaryExcerptLimit = 1000
)

// chunkEnricher turns a raw text chunk into a complete PageChunk record.
// Enrichment never fails outward: service failures degrade into sentinel
// fields and the record is produced regardless.
type chunkEnricher struct {
	summarizer  ai.Summarizer
	embedder    ai.Embedder
	dimensions  int
	source      string
	callTimeout time.Duration
	logger      *slog.Logger
}

func newChunkEnricher(provider ai.AIProvider, dimensions int, source string, callTimeout time.Duration, logger *slog.Logger) *chunkEnricher {
	return &chunkEnricher{
		summarizer:  provider.Summarizer(),
		embedder:    provider.Embedder(),
		dimensions:  dimensions,
		source:      source,
		callTimeout: callTimeout,
		logger:      logger.With("component", "enricher"),
	}
}

// enrich summarizes and embeds a chunk concurrently. The two calls are
// independent; either may fail without affecting the other.
func (e *chunkEnricher) enrich(ctx context.Context, pageURL string, index int, content string) *core.PageChunk {
	chunk := &core.PageChunk{
		Url:     pageURL,
		Index:   index,
		Content: content,
		Metadata: core.ChunkMetadata{
			Source:    e.source,
			Size:      len(content),
			CrawledAt: time.Now().UTC(),
			URLPath:   urlPath(pageURL),
		},
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()

		callCtx, cancel := e.callContext(ctx)
		defer cancel()

		excerpt := content
		if len(excerpt) > summaryExcerptLimit {
			excerpt = excerpt[:summaryExcerptLimit]
		}

		summary, err := e.summarizer.Summarize(callCtx, excerpt, pageURL)
		if err != nil {
			e.logger.Error("error summarizing chunk", "url", pageURL, "index", index, "err", err)
			chunk.Title = errorTitle
			chunk.Summary = errorSummary
			return
		}
		chunk.Title = summary.Title
		chunk.Summary = summary.Summary
	}()

	go func() {
		defer wg.Done()

		callCtx, cancel := e.callContext(ctx)
		defer cancel()

		vector, err := e.embedder.EmbedText(callCtx, content)
		if err != nil {
			e.logger.Error("error embedding chunk", "url", pageURL, "index", index, "err", err)
			chunk.Vector = make([]float32, e.dimensions)
			return
		}
		chunk.Vector = vector
	}()

	wg.Wait()
	return chunk
}

func (e *chunkEnricher) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.callTimeout)
}

// urlPath extracts the path component of a URL, or empty string when the
// URL does not parse.
func urlPath(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return parsed.Path
}
