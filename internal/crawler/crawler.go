// Package crawler implements a depth-bounded, politeness-aware breadth-first
// web traversal.
package crawler

import (
	"context"
	"io"
	"math/rand"
	"net/http"
	"time"

	"go.uber.org/zap"

	"clearcrawl/internal/extractor"
	"clearcrawl/internal/fetcher"
	"clearcrawl/internal/renderer"
	"clearcrawl/internal/robots"
	"clearcrawl/internal/seeding"
	"clearcrawl/internal/types"
)

const (
	// UserAgent identifies the crawler in every request and in robots.txt
	// group matching.
	UserAgent = "ClearnetResearchBot/1.0 (+https://example.com/bot; research-purpose)"

	// agentToken is the product token robots.txt groups are matched against.
	agentToken = "ClearnetResearchBot"

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 10 * 1024 * 1024
)

// Renderer renders a page with JavaScript executed. Optional; see WithRenderer.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Crawler walks a site breadth-first from a seed URL, respecting robots.txt
// and a per-request politeness delay, and returns extracted page data keyed
// by URL.
//
// Scheduling is strictly sequential: one in-flight fetch at a time, with a
// blocking delay before each request. URLs at depth d are fully expanded
// before any URL at depth d+1 is dequeued.
type Crawler struct {
	cfg      types.CrawlConfig
	settings settings
	robots   *robots.Policy
	client   *http.Client
	logger   *zap.Logger
	rnd      *rand.Rand
	renderer Renderer
	profile  fetcher.BrowserProfile
	spoof    bool
	seedMaps bool
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithHTTPClient replaces the default 10s-timeout client. The robots policy
// shares the client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Crawler) { c.client = client }
}

// WithLogger injects a logging handle. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Crawler) { c.logger = logger }
}

// WithDelayRange overrides the mode-derived politeness delay bounds.
func WithDelayRange(minDelay, maxDelay time.Duration) Option {
	return func(c *Crawler) {
		c.settings.delayMin = minDelay
		c.settings.delayMax = maxDelay
	}
}

// WithRenderer enables JavaScript rendering for pages that look like empty
// application shells.
func WithRenderer(r Renderer) Option {
	return func(c *Crawler) { c.renderer = r }
}

// WithBrowserHeaders sends rotating browser headers instead of the
// identifying user-agent. Off by default: the identifying user-agent is part
// of the crawler's contract, so spoofing must be an explicit choice.
func WithBrowserHeaders() Option {
	return func(c *Crawler) { c.spoof = true }
}

// WithSitemapSeeding seeds the frontier from the host's sitemap before
// traversal begins.
func WithSitemapSeeding() Option {
	return func(c *Crawler) { c.seedMaps = true }
}

// New creates a crawler. Mode-derived limits and delays are resolved here,
// once; the configuration is immutable afterwards.
func New(cfg types.CrawlConfig, opts ...Option) (*Crawler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Crawler{
		cfg:      cfg,
		settings: resolveMode(cfg),
		logger:   zap.NewNop(),
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.client == nil {
		client, err := fetcher.NewClient(fetcher.Options{
			Timeout: fetcher.DefaultTimeout,
			Stealth: cfg.Mode == types.ModeStealth,
		})
		if err != nil {
			return nil, err
		}
		c.client = client
	}

	if c.spoof {
		c.profile = fetcher.RandomProfile(c.rnd)
	}

	c.robots = robots.New(c.client, agentToken, cfg.RespectRobots, c.logger)

	c.logger.Info("initialized crawler",
		zap.String("mode", string(cfg.Mode)),
		zap.Int("depth", c.settings.maxDepth),
		zap.Int("link_limit", c.settings.linkLimit))

	return c, nil
}

// LinkLimit returns the mode-adjusted per-page link limit.
func (c *Crawler) LinkLimit() int { return c.settings.linkLimit }

// MaxDepth returns the mode-adjusted depth bound.
func (c *Crawler) MaxDepth() int { return c.settings.maxDepth }

// Crawl traverses breadth-first from seedURL and returns extracted data for
// every successfully fetched page, keyed by URL. The visited set and result
// map are created fresh per call; only the robots cache carries over between
// calls.
//
// Every per-URL failure — robots denial, HTTP error, transport error,
// extraction failure — is non-fatal: the URL is simply absent from the
// result. A crawl that fetches nothing returns an empty map. Cancelling ctx
// stops the traversal at the next loop iteration and returns what was
// accumulated so far.
func (c *Crawler) Crawl(ctx context.Context, seedURL string) map[string]types.PageData {
	c.logger.Info("starting crawl",
		zap.String("seed", seedURL), zap.Int("depth", c.settings.maxDepth))

	visited := make(map[string]bool)
	results := make(map[string]types.PageData)

	frontier := NewFrontier()
	frontier.Push(seedURL, 0)

	if c.seedMaps {
		urls, err := seeding.DiscoverFromSitemap(ctx, seedURL, c.client, c.logger)
		if err != nil {
			c.logger.Warn("sitemap seeding failed", zap.Error(err))
		}
		for _, u := range urls {
			frontier.Push(u, 0)
		}
	}

	for {
		select {
		case <-ctx.Done():
			c.logger.Warn("crawl cancelled", zap.Int("pages", len(results)))
			return results
		default:
		}

		item, ok := frontier.Pop()
		if !ok {
			break
		}

		if visited[item.URL] || item.Depth > c.settings.maxDepth {
			continue
		}

		// Mark before fetching so rediscovery never re-queues the URL.
		visited[item.URL] = true

		if !c.robots.IsAllowed(ctx, item.URL) {
			c.logger.Info("skipping disallowed url", zap.String("url", item.URL))
			continue
		}

		if !c.politenessDelay(ctx) {
			c.logger.Warn("crawl cancelled during delay", zap.Int("pages", len(results)))
			return results
		}

		data, ok := c.processURL(ctx, item)
		if !ok {
			continue
		}
		results[item.URL] = data

		for _, link := range data.Links {
			if !visited[link] {
				frontier.Push(link, item.Depth+1)
			}
		}
	}

	c.logger.Info("crawl complete", zap.Int("pages", len(results)))
	return results
}

// politenessDelay blocks for a uniformly random duration in the configured
// range. Returns false if the context was cancelled while waiting.
func (c *Crawler) politenessDelay(ctx context.Context) bool {
	if c.settings.delayMax <= 0 {
		return true
	}

	delay := c.settings.delayMin
	if spread := c.settings.delayMax - c.settings.delayMin; spread > 0 {
		delay += time.Duration(c.rnd.Int63n(int64(spread)))
	}

	select {
	case <-ctx.Done():
		return false
	case <-time.After(delay):
		return true
	}
}

// processURL fetches and extracts a single page. The second return value is
// false when the URL yielded no data. A panic during processing is recovered
// and degrades the URL to "no data" rather than aborting the traversal.
func (c *Crawler) processURL(ctx context.Context, item types.FrontierItem) (data types.PageData, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic while processing page",
				zap.String("url", item.URL), zap.Any("panic", r))
			ok = false
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.URL, nil)
	if err != nil {
		c.logger.Warn("request creation failed", zap.String("url", item.URL), zap.Error(err))
		return types.PageData{}, false
	}

	req.Header.Set("User-Agent", UserAgent)
	if c.spoof {
		c.profile.Apply(req)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("fetch failed", zap.String("url", item.URL), zap.Error(err))
		return types.PageData{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("non-200 response",
			zap.String("url", item.URL), zap.Int("status", resp.StatusCode))
		return types.PageData{}, false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.logger.Warn("body read failed", zap.String("url", item.URL), zap.Error(err))
		return types.PageData{}, false
	}

	htmlContent := string(body)
	if c.renderer != nil && renderer.ShouldRender(htmlContent) {
		rendered, err := c.renderer.Render(ctx, item.URL)
		if err != nil {
			c.logger.Warn("rendering failed, using plain HTML",
				zap.String("url", item.URL), zap.Error(err))
		} else {
			htmlContent = rendered
		}
	}

	data, err = extractor.Extract(item.URL, htmlContent, c.settings.linkLimit)
	if err != nil {
		c.logger.Warn("extraction failed", zap.String("url", item.URL), zap.Error(err))
		return types.PageData{}, false
	}

	c.logger.Info("crawled page",
		zap.String("url", item.URL),
		zap.Int("depth", item.Depth),
		zap.Int("chars", len(data.Content)),
		zap.Int("links", len(data.Links)))

	return data, true
}
