// Package crawl fetches documentation pages over HTTP.
//
// Client satisfies the ingestion pipeline's Fetcher interface: HTML
// responses are stripped to plain text with paragraph structure preserved,
// so downstream chunking can break at paragraph boundaries. The package
// also discovers page URLs from a site's sitemap.xml.
package crawl
