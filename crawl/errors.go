package crawl

import "errors"

var (
	// ErrNilHTTPClient is returned when a nil HTTP client is supplied.
	ErrNilHTTPClient = errors.New("HTTP client must not be nil")

	// ErrUnexpectedStatus is returned when a fetch gets a non-200 response.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrSitemapParse is returned when a sitemap document cannot be parsed.
	ErrSitemapParse = errors.New("failed to parse sitemap")
)
