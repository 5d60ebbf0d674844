package crawl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultMaxBodySize caps how much of a response body is read.
	DefaultMaxBodySize = 5 * 1024 * 1024

	defaultUserAgent   = "sitedex-crawler/1.0"
	defaultHTTPTimeout = 30 * time.Second
)

// Client fetches pages over HTTP and converts HTML responses to plain
// text suitable for chunking. Non-HTML responses (markdown, plain text)
// are returned as-is.
type Client struct {
	httpClient  *http.Client
	userAgent   string
	maxBodySize int64
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*Client) error

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) error {
		if httpClient == nil {
			return ErrNilHTTPClient
		}
		c.httpClient = httpClient
		return nil
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) error {
		if userAgent != "" {
			c.userAgent = userAgent
		}
		return nil
	}
}

// WithMaxBodySize caps the number of response bytes read per page.
func WithMaxBodySize(size int64) Option {
	return func(c *Client) error {
		if size > 0 {
			c.maxBodySize = size
		}
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger.With("component", "crawler")
		return nil
	}
}

// NewClient creates a new crawl client.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		httpClient:  &http.Client{Timeout: defaultHTTPTimeout},
		userAgent:   defaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
		logger:      slog.Default().With("component", "crawler"),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Fetch retrieves a page and returns its text content. HTML responses are
// stripped to plain text; other content types pass through unchanged.
func (c *Client) Fetch(ctx context.Context, url string) (string, error) {
	body, contentType, err := c.get(ctx, url)
	if err != nil {
		return "", err
	}

	text := string(body)
	if strings.Contains(contentType, "text/html") {
		text = stripHTML(text)
	}

	c.logger.Debug("fetched page", "url", url, "bytes", len(body))
	return text, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("%w: HTTP %d for %s", ErrUnexpectedStatus, resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}

	return body, resp.Header.Get("Content-Type"), nil
}
