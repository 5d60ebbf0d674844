package crawl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSitemap = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url>
    <loc>https://ai.pydantic.dev/</loc>
    <lastmod>2025-01-01</lastmod>
  </url>
  <url>
    <loc> https://ai.pydantic.dev/agents/ </loc>
  </url>
  <url>
    <loc></loc>
  </url>
</urlset>`

func TestDiscoverURLs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(testSitemap))
	}))
	defer server.Close()

	client, err := NewClient()
	require.NoError(t, err)

	urls, err := client.DiscoverURLs(context.Background(), server.URL+"/sitemap.xml")
	require.NoError(t, err)

	// Empty <loc> entries are dropped, whitespace is trimmed
	assert.Equal(t, []string{
		"https://ai.pydantic.dev/",
		"https://ai.pydantic.dev/agents/",
	}, urls)
}

func TestDiscoverURLsMalformedSitemap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not XML <<<"))
	}))
	defer server.Close()

	client, err := NewClient()
	require.NoError(t, err)

	_, err = client.DiscoverURLs(context.Background(), server.URL+"/sitemap.xml")
	assert.ErrorIs(t, err, ErrSitemapParse)
}

func TestDiscoverURLsFetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewClient()
	require.NoError(t, err)

	_, err = client.DiscoverURLs(context.Background(), server.URL+"/sitemap.xml")
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}
