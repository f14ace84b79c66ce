package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"clearcrawl/internal/config"
	"clearcrawl/internal/crawler"
	"clearcrawl/internal/fetcher"
	"clearcrawl/internal/renderer"
	"clearcrawl/internal/storage"
	"clearcrawl/internal/types"
)

var (
	startURL       string
	crawlDepth     int
	linkLimit      int
	crawlMode      string
	ignoreRobots   bool
	dataDir        string
	enableSQLite   bool
	enableRender   bool
	seedSitemap    bool
	proxyURL       string
	browserHeaders bool
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl a site and store the extracted pages",
	Long:  `Crawl breadth-first from a seed URL, honoring robots.txt and politeness delays, and persist the extracted page data`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		applyCrawlFlags(cmd, cfg)

		logger, err := buildLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		c, cleanup, err := newCrawler(cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to create crawler: %w", err)
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		results := c.Crawl(ctx, startURL)

		if err := saveResults(cfg, results, logger); err != nil {
			return fmt.Errorf("failed to save results: %w", err)
		}

		fmt.Printf("Crawl completed: %d pages\n", len(results))
		return nil
	},
}

func init() {
	addCrawlFlags(crawlCmd)
	crawlCmd.MarkFlagRequired("url")
}

// addCrawlFlags registers the crawl flag set; research shares it.
func addCrawlFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&startURL, "url", "", "Seed URL (required)")
	cmd.Flags().IntVar(&crawlDepth, "depth", 2, "Maximum crawl depth")
	cmd.Flags().IntVar(&linkLimit, "link-limit", 5, "Maximum links followed per page")
	cmd.Flags().StringVar(&crawlMode, "mode", "default", "Crawl mode: exploratory, deep_dive, stealth, default")
	cmd.Flags().BoolVar(&ignoreRobots, "ignore-robots", false, "Ignore robots.txt")
	cmd.Flags().StringVar(&dataDir, "data-dir", "data", "Data storage directory")
	cmd.Flags().BoolVar(&enableSQLite, "sqlite", false, "Use SQLite for queryable storage instead of JSONL")
	cmd.Flags().BoolVar(&enableRender, "render", false, "Render JavaScript-heavy pages with headless Chrome")
	cmd.Flags().BoolVar(&seedSitemap, "seed-sitemap", false, "Seed the frontier from the site's sitemap")
	cmd.Flags().StringVar(&proxyURL, "proxy", "", "Proxy URL for outbound requests")
	cmd.Flags().BoolVar(&browserHeaders, "browser-headers", false, "Send rotating browser headers instead of the bot user-agent")
}

// applyCrawlFlags layers explicitly-set flags over the loaded configuration.
func applyCrawlFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("depth") {
		cfg.Crawl.MaxDepth = crawlDepth
	}
	if flags.Changed("link-limit") {
		cfg.Crawl.LinkLimit = linkLimit
	}
	if flags.Changed("mode") {
		cfg.Crawl.Mode = crawlMode
	}
	if flags.Changed("ignore-robots") {
		cfg.Crawl.RespectRobots = !ignoreRobots
	}
	if flags.Changed("data-dir") {
		cfg.Storage.DataDir = dataDir
	}
	if flags.Changed("sqlite") {
		cfg.Storage.SQLite = enableSQLite
	}
	if flags.Changed("render") {
		cfg.Rendering.Enabled = enableRender
	}
	if flags.Changed("seed-sitemap") {
		cfg.Crawl.SeedSitemap = seedSitemap
	}
	if flags.Changed("proxy") {
		cfg.Fetch.ProxyURL = proxyURL
	}
}

// newCrawler assembles a crawler from the effective configuration. The
// returned cleanup releases the renderer, if one was started.
func newCrawler(cfg *config.Config, logger *zap.Logger) (*crawler.Crawler, func(), error) {
	cleanup := func() {}

	opts := []crawler.Option{crawler.WithLogger(logger)}

	if cfg.Fetch.ProxyURL != "" {
		client, err := fetcher.NewClient(fetcher.Options{
			Timeout:  fetcher.DefaultTimeout,
			ProxyURL: cfg.Fetch.ProxyURL,
			Stealth:  types.ParseMode(cfg.Crawl.Mode) == types.ModeStealth,
		})
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, crawler.WithHTTPClient(client))
	}

	if cfg.Rendering.Enabled {
		r, err := renderer.New(crawler.UserAgent, 30*time.Second)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to start renderer: %w", err)
		}
		cleanup = func() { r.Close() }
		opts = append(opts, crawler.WithRenderer(r))
	}

	if cfg.Crawl.SeedSitemap {
		opts = append(opts, crawler.WithSitemapSeeding())
	}
	if browserHeaders {
		opts = append(opts, crawler.WithBrowserHeaders())
	}

	c, err := crawler.New(cfg.CrawlSettings(), opts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return c, cleanup, nil
}

// saveResults persists crawled pages to the configured backend.
func saveResults(cfg *config.Config, results map[string]types.PageData, logger *zap.Logger) error {
	backend, err := openStorage(cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	now := time.Now().UTC()
	for url, data := range results {
		page := types.StoredPage{URL: url, CrawledAt: now, Data: data}
		if err := backend.SavePage(page); err != nil {
			logger.Error("failed to save page", zap.String("url", url), zap.Error(err))
		}
	}
	logger.Info("saved crawl results", zap.Int("pages", len(results)))
	return nil
}

func openStorage(cfg *config.Config) (storage.Backend, error) {
	if cfg.Storage.SQLite {
		if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
			return nil, err
		}
		return storage.NewSQLiteStorage(filepath.Join(cfg.Storage.DataDir, "crawl.db"))
	}
	return storage.New(cfg.Storage.DataDir)
}
