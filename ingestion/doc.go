// Package ingestion provides pipeline orchestration for crawling and
// indexing documentation pages.
//
// The Pipeline type manages the crawl workflow for a set of URLs, including:
//   - Fetching page text through a bounded worker pool
//   - Splitting pages into boundary-aware chunks
//   - Summarizing and embedding each chunk concurrently
//   - Storing every chunk record independently
//
// Failures are isolated at each level: a failed fetch skips one page, a
// failed service call degrades one chunk to sentinel fields, and a failed
// write drops one record. Nothing aborts the run.
package ingestion
