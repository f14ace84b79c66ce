package cli

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"clearcrawl/internal/config"
	"clearcrawl/internal/types"
)

func TestRootCommandHelp(t *testing.T) {
	rootCmd.SetArgs([]string{"--help"})
	if err := rootCmd.Execute(); err != nil {
		t.Errorf("help failed: %v", err)
	}
}

func TestApplyCrawlFlags(t *testing.T) {
	if err := crawlCmd.ParseFlags([]string{
		"--depth", "3",
		"--mode", "stealth",
		"--ignore-robots",
		"--sqlite",
	}); err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	cfg := config.Default()
	applyCrawlFlags(crawlCmd, &cfg)

	if cfg.Crawl.MaxDepth != 3 {
		t.Errorf("max_depth = %d, want 3", cfg.Crawl.MaxDepth)
	}
	if cfg.Crawl.Mode != "stealth" {
		t.Errorf("mode = %q, want stealth", cfg.Crawl.Mode)
	}
	if cfg.Crawl.RespectRobots {
		t.Error("expected robots disabled after --ignore-robots")
	}
	if !cfg.Storage.SQLite {
		t.Error("expected sqlite enabled")
	}
	// Untouched flags keep config values.
	if cfg.Crawl.LinkLimit != 5 {
		t.Errorf("link_limit = %d, want untouched default 5", cfg.Crawl.LinkLimit)
	}
}

func exportPages() []types.StoredPage {
	return []types.StoredPage{
		{
			URL:       "https://example.com",
			CrawledAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			Data: types.PageData{
				Content:  "hello world",
				Links:    []string{"https://example.com/a"},
				Metadata: types.PageMetadata{Title: "Home", Description: "front page"},
			},
		},
	}
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pages.json")
	if err := writeJSON(path, exportPages()); err != nil {
		t.Fatalf("writeJSON failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !strings.Contains(string(data), `"https://example.com"`) {
		t.Errorf("JSON missing URL: %s", data)
	}
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pages.csv")
	if err := writeCSV(path, exportPages()); err != nil {
		t.Fatalf("writeCSV failed: %v", err)
	}

	fh, err := os.Open(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer fh.Close()

	rows, err := csv.NewReader(fh).ReadAll()
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header plus one record", len(rows))
	}
	if rows[1][0] != "https://example.com" || rows[1][1] != "Home" {
		t.Errorf("unexpected record %v", rows[1])
	}
	if rows[1][5] != "1" {
		t.Errorf("link count = %q, want 1", rows[1][5])
	}
}

func TestOpenStorageJSONL(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.DataDir = t.TempDir()

	backend, err := openStorage(&cfg)
	if err != nil {
		t.Fatalf("openStorage failed: %v", err)
	}
	defer backend.Close()

	if err := backend.SavePage(exportPages()[0]); err != nil {
		t.Errorf("SavePage failed: %v", err)
	}
}
