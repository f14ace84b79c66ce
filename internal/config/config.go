// Package config loads crawler configuration from an optional YAML file,
// applies defaults, and validates the result. CLI flags are layered on top by
// the cli package.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"clearcrawl/internal/types"
)

// Config captures the full configuration for a research crawl.
type Config struct {
	Crawl     CrawlConfig     `yaml:"crawl"`
	Storage   StorageConfig   `yaml:"storage"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	LLM       LLMConfig       `yaml:"llm"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Rendering RenderingConfig `yaml:"rendering"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// CrawlConfig controls traversal limits and politeness.
type CrawlConfig struct {
	RespectRobots bool   `yaml:"respect_robots"`
	MaxDepth      int    `yaml:"max_depth"`
	LinkLimit     int    `yaml:"link_limit"`
	Mode          string `yaml:"mode"`
	SeedSitemap   bool   `yaml:"seed_sitemap"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
	SQLite  bool   `yaml:"sqlite"`
}

// KnowledgeConfig points at the vector store.
type KnowledgeConfig struct {
	Endpoint string `yaml:"endpoint"`
}

// LLMConfig tunes report generation.
type LLMConfig struct {
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// FetchConfig controls the HTTP transport.
type FetchConfig struct {
	ProxyURL string `yaml:"proxy_url"`
}

// RenderingConfig controls optional JavaScript rendering.
type RenderingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoggingConfig selects log verbosity and format.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Structured bool   `yaml:"structured"`
}

// Default returns a Config populated with sensible defaults.
func Default() Config {
	return Config{
		Crawl: CrawlConfig{
			RespectRobots: true,
			MaxDepth:      2,
			LinkLimit:     5,
			Mode:          string(types.ModeDefault),
		},
		Storage: StorageConfig{
			DataDir: "data",
		},
		Knowledge: KnowledgeConfig{
			Endpoint: "http://localhost:8000",
		},
		LLM: LLMConfig{
			Model:       "llama3-8b-8192",
			Temperature: 0.7,
			MaxTokens:   4000,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Structured: false,
		},
	}
}

// Load reads, merges, and validates configuration from a YAML file.
func Load(path string) (*Config, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer fh.Close()
	return LoadFromReader(fh)
}

// LoadFromReader decodes configuration from an arbitrary reader.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces required invariants.
func (c Config) Validate() error {
	if c.Crawl.MaxDepth < 0 {
		return fmt.Errorf("crawl.max_depth must be >= 0 (got %d)", c.Crawl.MaxDepth)
	}
	if c.Crawl.LinkLimit < 1 {
		return fmt.Errorf("crawl.link_limit must be >= 1 (got %d)", c.Crawl.LinkLimit)
	}
	if strings.TrimSpace(c.Storage.DataDir) == "" {
		return fmt.Errorf("storage.data_dir must be set")
	}
	if strings.TrimSpace(c.Knowledge.Endpoint) == "" {
		return fmt.Errorf("knowledge.endpoint must be set")
	}
	if c.LLM.MaxTokens < 0 {
		return fmt.Errorf("llm.max_tokens must be >= 0 (got %d)", c.LLM.MaxTokens)
	}
	return nil
}

// CrawlSettings converts the crawl section into the crawler's config type.
func (c Config) CrawlSettings() types.CrawlConfig {
	return types.CrawlConfig{
		RespectRobots: c.Crawl.RespectRobots,
		MaxDepth:      c.Crawl.MaxDepth,
		LinkLimit:     c.Crawl.LinkLimit,
		Mode:          types.ParseMode(c.Crawl.Mode),
	}
}
