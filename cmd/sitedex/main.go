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


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/sitedex"
	"github.com/poiesic/sitedex/ai"
	"github.com/poiesic/sitedex/ai/openai"
	"github.com/poiesic/sitedex/crawl"
	"github.com/poiesic/sitedex/ingestion"
	"github.com/poiesic/sitedex/reembed"
	"github.com/poiesic/sitedex/search"
	"github.com/poiesic/sitedex/storage/badger"
	"github.com/urfave/cli/v2"
)

var aiFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "host",
		Usage: "OpenAI-compatible service host URL for both services",
		Value: "https://api.openai.com/v1",
	},
	&cli.StringFlag{
		Name:  "embedding-host",
		Usage: "Embedding service host URL (overrides --host)",
	},
	&cli.StringFlag{
		Name:  "summary-host",
		Usage: "Summary service host URL (overrides --host)",
	},
	&cli.StringFlag{
		Name:  "embedding-model",
		Usage: "Embedding model name",
		Value: "text-embedding-3-small",
	},
	&cli.StringFlag{
		Name:  "summary-model",
		Usage: "Model name for title/summary derivation",
		Value: "gpt-4o-mini",
	},
	&cli.IntFlag{
		Name:  "embedding-dimensions",
		Usage: "Embedding vector length",
		Value: ai.DefaultEmbeddingDimensions,
	},
	&cli.StringFlag{
		Name:    "token",
		Usage:   "API token for the AI services",
		EnvVars: []string{"OPENAI_API_KEY"},
		Value:   "none",
	},
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "db",
		Aliases:  []string{"d"},
		Usage:    "Path to BadgerDB database directory",
		Required: true,
	}
}

func main() {
	app := &cli.App{
		Name:  "sitedex",
		Usage: "Documentation site indexer with semantic search",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "crawl",
				Usage:     "Crawl documentation pages and index their chunks",
				ArgsUsage: "[url ...]",
				Action:    crawlCommand,
				Flags: append([]cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:  "sitemap",
						Usage: "Sitemap URL to discover pages from",
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Source tag recorded on every indexed chunk",
						Value: "docs",
					},
					&cli.IntFlag{
						Name:    "concurrency",
						Aliases: []string{"c"},
						Usage:   "Maximum pages fetched and processed at once",
						Value:   ingestion.DefaultConcurrency,
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Target chunk size in characters",
						Value: ingestion.DefaultChunkSize,
					},
					&cli.DurationFlag{
						Name:  "fetch-timeout",
						Usage: "Timeout for a single page fetch",
						Value: ingestion.DefaultFetchTimeout,
					},
					&cli.DurationFlag{
						Name:  "service-timeout",
						Usage: "Timeout for a single AI service call",
						Value: ingestion.DefaultServiceTimeout,
					},
				}, aiFlags...),
			},
			{
				Name:   "pages",
				Usage:  "List indexed page URLs",
				Action: pagesCommand,
				Flags: append([]cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:  "source",
						Usage: "Restrict listing to one source tag",
					},
				}, aiFlags...),
			},
			{
				Name:      "page",
				Usage:     "Print the reassembled text of an indexed page",
				ArgsUsage: "<url>",
				Action:    pageCommand,
				Flags:     append([]cli.Flag{dbFlag()}, aiFlags...),
			},
			{
				Name:      "search",
				Usage:     "Search indexed chunks by semantic similarity",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append([]cli.Flag{
					dbFlag(),
					&cli.IntFlag{
						Name:  "max-hits",
						Usage: "Maximum number of results",
						Value: 5,
					},
					&cli.Float64Flag{
						Name:  "min-similarity",
						Usage: "Similarity threshold below which matches are discarded",
						Value: 0.60,
					},
				}, aiFlags...),
			},
			{
				Name:   "reembed",
				Usage:  "Reembed indexed chunks with a new embedding model",
				Action: reembedCommand,
				Flags: append([]cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:  "source",
						Usage: "Restrict reembedding to one source tag",
					},
					&cli.BoolFlag{
						Name:  "only-zero-vectors",
						Usage: "Only repair chunks whose embedding failed at ingestion",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to embed in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N pages",
						Value: 10,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				}, aiFlags...),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func aiConfigFromFlags(c *cli.Context) (*ai.Config, error) {
	opts := []ai.ConfigOption{
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithSummaryModel(c.String("summary-model")),
		ai.WithEmbeddingDimensions(c.Int("embedding-dimensions")),
		ai.WithToken(c.String("token")),
	}
	if host := c.String("embedding-host"); host != "" {
		opts = append(opts, ai.WithEmbeddingHost(host))
	}
	if host := c.String("summary-host"); host != "" {
		opts = append(opts, ai.WithSummaryHost(host))
	}

	config := ai.NewConfig(opts...)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return config, nil
}

func openDatabase(c *cli.Context) (*sitedex.Database, error) {
	config, err := aiConfigFromFlags(c)
	if err != nil {
		return nil, err
	}

	db, err := sitedex.NewDatabase(c.String("db"), sitedex.WithAIConfig(config))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func crawlCommand(c *cli.Context) error {
	ctx := context.Background()

	client, err := crawl.NewClient()
	if err != nil {
		return err
	}

	urls := c.Args().Slice()
	if sitemap := c.String("sitemap"); sitemap != "" {
		discovered, err := client.DiscoverURLs(ctx, sitemap)
		if err != nil {
			return fmt.Errorf("failed to discover URLs: %w", err)
		}
		urls = append(urls, discovered...)
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URLs to crawl: pass URLs as arguments or use --sitemap")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, err := db.NewIngestionPipeline(client,
		ingestion.WithConcurrency(c.Int("concurrency")),
		ingestion.WithChunkSize(c.Int("chunk-size")),
		ingestion.WithSource(c.String("source")),
		ingestion.WithFetchTimeout(c.Duration("fetch-timeout")),
		ingestion.WithServiceTimeout(c.Duration("service-timeout")),
		ingestion.WithEmbeddingDimensions(c.Int("embedding-dimensions")),
	)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	fmt.Fprintf(os.Stderr, "Crawling %d pages (concurrency: %d)\n", len(urls), c.Int("concurrency"))

	stats, err := pipeline.Run(ctx, urls)
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}

	fmt.Printf("Crawled %d pages (%d failed), stored %d chunks (%d failed)\n",
		stats.PagesCrawled.Load(), stats.PagesFailed.Load(),
		stats.ChunksStored.Load(), stats.ChunksFailed.Load())
	return nil
}

func pagesCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := db.NewSearcher()
	if err != nil {
		return err
	}

	urls, err := searcher.ListPages(context.Background(), c.String("source"))
	if err != nil {
		return err
	}

	for _, url := range urls {
		fmt.Println(url)
	}
	return nil
}

func pageCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one URL argument")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := db.NewSearcher()
	if err != nil {
		return err
	}

	content, err := searcher.PageContent(context.Background(), c.Args().First())
	if err != nil {
		return err
	}

	fmt.Println(content)
	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("expected a query argument")
	}
	query := strings.Join(c.Args().Slice(), " ")

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := db.NewSearcher(
		search.WithMinSimilarity(float32(c.Float64("min-similarity"))),
	)
	if err != nil {
		return err
	}

	matches, err := searcher.FindRelevant(context.Background(), query, c.Int("max-hits"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(matches) == 0 {
		fmt.Println("No matches.")
		return nil
	}

	for i, match := range matches {
		chunk := match.Chunk
		fmt.Printf("%d. %s (%.3f)\n   %s#chunk-%d\n   %s\n",
			i+1, chunk.Title, match.Score, chunk.Url, chunk.Index, chunk.Summary)
	}
	return nil
}

func reembedCommand(c *cli.Context) error {
	ctx := context.Background()

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewChunkRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer repo.Close()

	aiConfig, err := aiConfigFromFlags(c)
	if err != nil {
		return err
	}

	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	reembedConfig := &reembed.Config{
		Source:          c.String("source"),
		BatchSize:       c.Int("batch-size"),
		ReportInterval:  c.Int("report-interval"),
		MaxRetries:      c.Int("max-retries"),
		RetryDelay:      c.Duration("retry-delay"),
		OnlyZeroVectors: c.Bool("only-zero-vectors"),
	}

	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	reembedder := reembed.NewReembedder(repo, embedder, reembedConfig, os.Stderr)

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := reembedder.Run(ctx); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}

	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
