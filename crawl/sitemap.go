package crawl

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
)

// urlSet mirrors the <urlset> element of the sitemap protocol.
type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc string `xml:"loc"`
}

// DiscoverURLs fetches a sitemap and returns the page URLs it lists.
func (c *Client) DiscoverURLs(ctx context.Context, sitemapURL string) ([]string, error) {
	body, _, err := c.get(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}

	var set urlSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSitemapParse, err)
	}

	var urls []string
	for _, entry := range set.URLs {
		loc := strings.TrimSpace(entry.Loc)
		if loc != "" {
			urls = append(urls, loc)
		}
	}

	c.logger.Info("discovered sitemap URLs", "sitemap", sitemapURL, "count", len(urls))
	return urls, nil
}
