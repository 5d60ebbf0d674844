package ingestion

import (
	"context"
	"log/slog"
	"sync"

	"github.com/poiesic/sitedex/core"
	"github.com/poiesic/sitedex/storage"
)

// pageProcessor splits a fetched page into chunks, enriches them, and
// writes each resulting record independently. Chunk counts per page are
// small, so per-page fan-out is unbounded; the page-level pool in the
// pipeline bounds total load.
type pageProcessor struct {
	chunks    storage.ChunkRepository
	enricher  *chunkEnricher
	chunkSize int
	logger    *slog.Logger
}

func newPageProcessor(chunks storage.ChunkRepository, enricher *chunkEnricher, chunkSize int, logger *slog.Logger) *pageProcessor {
	return &pageProcessor{
		chunks:    chunks,
		enricher:  enricher,
		chunkSize: chunkSize,
		logger:    logger.With("component", "processor"),
	}
}

// process splits and stores a page. A storage failure on one chunk does
// not block or fail the others. Returns stored and failed chunk counts.
func (p *pageProcessor) process(ctx context.Context, url, text string) (stored, failed int) {
	parts := SplitText(text, p.chunkSize)
	if len(parts) == 0 {
		p.logger.Debug("page produced no chunks", "url", url)
		return 0, 0
	}

	records := make([]*core.PageChunk, len(parts))

	var wg sync.WaitGroup
	for i, part := range parts {
		wg.Add(1)
		go func(index int, content string) {
			defer wg.Done()
			records[index] = p.enricher.enrich(ctx, url, index, content)
		}(i, part)
	}
	wg.Wait()

	for _, record := range records {
		if err := p.chunks.UpsertChunks(ctx, record); err != nil {
			p.logger.Error("error storing chunk", "url", url, "index", record.Index, "err", err)
			failed++
			continue
		}
		stored++
	}

	p.logger.Debug("processed page", "url", url, "chunks", len(records), "stored", stored, "failed", failed)
	return stored, failed
}
