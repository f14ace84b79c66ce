// Package seeding discovers additional same-host seed URLs before a crawl.
package seeding

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"clearcrawl/internal/extractor"
)

// maxSitemapDepth bounds recursion through nested sitemap index files.
const maxSitemapDepth = 3

// DiscoverFromSitemap collects URLs from a host's sitemap.xml, sitemap index
// variants, and any Sitemap directives found in robots.txt. Only URLs on the
// seed's host are returned, matching the crawler's internal-link-only policy.
func DiscoverFromSitemap(ctx context.Context, seedURL string, client *http.Client, logger *zap.Logger) ([]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	parsed, err := url.Parse(seedURL)
	if err != nil {
		return nil, fmt.Errorf("invalid seed URL: %w", err)
	}

	candidates := []string{
		fmt.Sprintf("%s://%s/sitemap.xml", parsed.Scheme, parsed.Host),
		fmt.Sprintf("%s://%s/sitemap_index.xml", parsed.Scheme, parsed.Host),
	}
	candidates = append(candidates, sitemapsFromRobots(ctx, parsed, client)...)

	visited := make(map[string]bool)
	found := make([]string, 0)

	for _, sitemapURL := range candidates {
		urls, err := fetchSitemap(ctx, sitemapURL, client, visited, 0)
		if err != nil {
			logger.Debug("sitemap unavailable", zap.String("url", sitemapURL), zap.Error(err))
			continue
		}
		for _, u := range urls {
			if target, err := url.Parse(u); err == nil && target.Host == parsed.Host {
				found = append(found, u)
			}
		}
	}

	logger.Info("sitemap seeding complete",
		zap.String("host", parsed.Host), zap.Int("urls", len(found)))
	return found, nil
}

// sitemapsFromRobots extracts Sitemap directives from the host's robots.txt.
func sitemapsFromRobots(ctx context.Context, base *url.URL, client *http.Client) []string {
	robotsURL := fmt.Sprintf("%s://%s/robots.txt", base.Scheme, base.Host)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}

	sitemaps := make([]string, 0)
	for _, line := range strings.Split(string(body), "\n") {
		if strings.HasPrefix(strings.ToLower(line), "sitemap:") {
			if u := strings.TrimSpace(line[len("sitemap:"):]); u != "" {
				sitemaps = append(sitemaps, u)
			}
		}
	}
	return sitemaps
}

func fetchSitemap(ctx context.Context, sitemapURL string, client *http.Client, visited map[string]bool, depth int) ([]string, error) {
	if visited[sitemapURL] || depth > maxSitemapDepth {
		return nil, nil
	}
	visited[sitemapURL] = true

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sitemapURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sitemap returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	urls := extractor.ExtractSitemapURLs(string(body))

	all := make([]string, 0, len(urls))
	for _, u := range urls {
		// Nested sitemap index entries are fetched recursively.
		if strings.HasSuffix(u, ".xml") || strings.Contains(u, "sitemap") {
			nested, _ := fetchSitemap(ctx, u, client, visited, depth+1)
			all = append(all, nested...)
		} else {
			all = append(all, u)
		}
	}
	return all, nil
}
