// Package robots evaluates robots exclusion rules with per-origin caching.
package robots

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
)

// Policy answers robots.txt allow/deny queries. Parsed rules are cached per
// origin (scheme+host) and reused for the lifetime of the Policy, so a crawler
// holding one Policy amortizes robots.txt fetches across crawl calls.
//
// Failures are handled fail-open: an origin whose robots.txt cannot be fetched
// or parsed is treated as fully permissive. A crawler must degrade to
// "allowed" rather than halt, since large fractions of sites lack or
// mis-serve robots.txt.
type Policy struct {
	client    *http.Client
	userAgent string
	respect   bool
	logger    *zap.Logger

	mu    sync.Mutex
	cache map[string]*robotstxt.RobotsData
}

// New creates a robots policy. When respect is false every query returns true.
func New(client *http.Client, userAgent string, respect bool, logger *zap.Logger) *Policy {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Policy{
		client:    client,
		userAgent: userAgent,
		respect:   respect,
		logger:    logger,
		cache:     make(map[string]*robotstxt.RobotsData),
	}
}

// IsAllowed reports whether the target URL may be fetched.
func (p *Policy) IsAllowed(ctx context.Context, rawURL string) bool {
	if !p.respect {
		return true
	}

	target, err := url.Parse(rawURL)
	if err != nil || target.Host == "" {
		return true
	}

	origin := target.Scheme + "://" + target.Host

	p.mu.Lock()
	rules, cached := p.cache[origin]
	p.mu.Unlock()

	if !cached {
		rules, err = p.fetch(ctx, origin)
		if err != nil {
			p.logger.Warn("robots.txt unavailable, assuming allowed",
				zap.String("origin", origin), zap.Error(err))
			return true
		}
		p.mu.Lock()
		p.cache[origin] = rules
		p.mu.Unlock()
	}

	group := rules.FindGroup(p.userAgent)
	if group == nil {
		group = rules.FindGroup("*")
		if group == nil {
			return true
		}
	}
	return group.Test(target.Path)
}

func (p *Policy) fetch(ctx context.Context, origin string) (*robotstxt.RobotsData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil, err
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("robots.txt returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return robotstxt.FromBytes(body)
}
