package types

import (
	"fmt"
	"time"
)

// Mode selects a crawling strategy
type Mode string

const (
	ModeExploratory Mode = "exploratory"
	ModeDeepDive    Mode = "deep_dive"
	ModeStealth     Mode = "stealth"
	ModeDefault     Mode = "default"
)

// ParseMode maps a mode string to a Mode, falling back to ModeDefault
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeExploratory, ModeDeepDive, ModeStealth:
		return Mode(s)
	default:
		return ModeDefault
	}
}

// CrawlConfig holds crawler configuration. It is immutable after construction;
// mode-derived limits are resolved once by the crawler.
type CrawlConfig struct {
	RespectRobots bool
	MaxDepth      int
	LinkLimit     int
	Mode          Mode
}

// Validate checks configuration bounds
func (c CrawlConfig) Validate() error {
	if c.MaxDepth < 0 {
		return fmt.Errorf("max depth cannot be negative, got %d", c.MaxDepth)
	}
	if c.LinkLimit < 1 {
		return fmt.Errorf("link limit must be at least 1, got %d", c.LinkLimit)
	}
	return nil
}

// FrontierItem represents a URL in the frontier
type FrontierItem struct {
	URL   string
	Depth int
}

// Resources groups page resource URLs by kind
type Resources struct {
	Images      []string `json:"images"`
	Scripts     []string `json:"scripts"`
	Stylesheets []string `json:"stylesheets"`
}

// PageMetadata holds document metadata with documented defaults:
// Title is "No title" when the document has none, the others default to "".
type PageMetadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Keywords    string `json:"keywords"`
}

// PageData contains everything extracted from a single fetched page
type PageData struct {
	Content   string       `json:"content"`
	Links     []string     `json:"links"`
	Resources Resources    `json:"resources"`
	Metadata  PageMetadata `json:"metadata"`
}

// StoredPage is the persisted form of a crawled page
type StoredPage struct {
	URL       string    `json:"url"`
	CrawledAt time.Time `json:"crawled_at"`
	Data      PageData  `json:"data"`
}
