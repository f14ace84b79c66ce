package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	"clearcrawl/internal/types"
)

// testSite serves a fixed set of pages and records every page fetch.
type testSite struct {
	srv *httptest.Server

	mu      sync.Mutex
	fetches []string
}

func newTestSite(t *testing.T, pages map[string]string) *testSite {
	t.Helper()

	site := &testSite{}
	site.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			site.mu.Lock()
			site.fetches = append(site.fetches, r.URL.Path)
			site.mu.Unlock()
		}

		html, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, html)
	}))
	t.Cleanup(site.srv.Close)
	return site
}

func (s *testSite) url(path string) string {
	return s.srv.URL + path
}

func (s *testSite) fetchCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.fetches {
		if p == path {
			n++
		}
	}
	return n
}

func (s *testSite) fetchOrder() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.fetches...)
}

func newTestCrawler(t *testing.T, site *testSite, cfg types.CrawlConfig, opts ...Option) *Crawler {
	t.Helper()

	opts = append([]Option{
		WithHTTPClient(site.srv.Client()),
		WithDelayRange(0, 0),
	}, opts...)

	c, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestNewValidatesConfig(t *testing.T) {
	if _, err := New(types.CrawlConfig{MaxDepth: -1, LinkLimit: 5}); err == nil {
		t.Error("expected error for negative depth")
	}
	if _, err := New(types.CrawlConfig{MaxDepth: 1, LinkLimit: 0}); err == nil {
		t.Error("expected error for zero link limit")
	}
}

func TestCrawlDepthBound(t *testing.T) {
	site := newTestSite(t, map[string]string{
		"/":  `<html><body><a href="/a">a</a><a href="/b">b</a></body></html>`,
		"/a": `<html><body><a href="/c">c</a></body></html>`,
		"/b": `<html><body><p>leaf</p></body></html>`,
		"/c": `<html><body><a href="/d">d</a></body></html>`,
		"/d": `<html><body><p>too deep</p></body></html>`,
	})

	c := newTestCrawler(t, site, types.CrawlConfig{MaxDepth: 1, LinkLimit: 5, Mode: types.ModeDefault})
	results := c.Crawl(context.Background(), site.url("/"))

	for _, path := range []string{"/", "/a", "/b"} {
		if _, ok := results[site.url(path)]; !ok {
			t.Errorf("expected %s in results", path)
		}
	}
	for _, path := range []string{"/c", "/d"} {
		if _, ok := results[site.url(path)]; ok {
			t.Errorf("%s is beyond the depth bound, must not appear", path)
		}
	}
}

func TestCrawlVisitedOnce(t *testing.T) {
	// /popular is linked from three pages but must be fetched once.
	site := newTestSite(t, map[string]string{
		"/":        `<html><body><a href="/a">a</a><a href="/b">b</a><a href="/popular">p</a></body></html>`,
		"/a":       `<html><body><a href="/popular">p</a></body></html>`,
		"/b":       `<html><body><a href="/popular">p</a></body></html>`,
		"/popular": `<html><body><p>popular</p></body></html>`,
	})

	c := newTestCrawler(t, site, types.CrawlConfig{MaxDepth: 3, LinkLimit: 5, Mode: types.ModeDefault})
	c.Crawl(context.Background(), site.url("/"))

	if n := site.fetchCount("/popular"); n != 1 {
		t.Errorf("expected exactly 1 fetch of /popular, got %d", n)
	}
}

func TestCrawlBFSOrdering(t *testing.T) {
	site := newTestSite(t, map[string]string{
		"/":  `<html><body><a href="/a">a</a><a href="/b">b</a></body></html>`,
		"/a": `<html><body><a href="/c">c</a></body></html>`,
		"/b": `<html><body><p>leaf</p></body></html>`,
		"/c": `<html><body><p>leaf</p></body></html>`,
	})

	c := newTestCrawler(t, site, types.CrawlConfig{MaxDepth: 2, LinkLimit: 5, Mode: types.ModeDefault})
	c.Crawl(context.Background(), site.url("/"))

	order := site.fetchOrder()
	pos := make(map[string]int, len(order))
	for i, p := range order {
		pos[p] = i
	}

	if !(pos["/"] < pos["/a"] && pos["/"] < pos["/b"]) {
		t.Errorf("seed must be fetched before depth 1, order = %v", order)
	}
	if !(pos["/a"] < pos["/c"] && pos["/b"] < pos["/c"]) {
		t.Errorf("depth 1 must be fully expanded before depth 2, order = %v", order)
	}
}

func TestCrawlScenarioLinkLimitAndExternal(t *testing.T) {
	site := newTestSite(t, map[string]string{
		"/": `<html><body>
			<a href="/p1">one</a>
			<a href="/p2">two</a>
			<a href="/p3">three</a>
			<a href="https://external.test/x">external</a>
		</body></html>`,
		"/p1": `<html><body><p>page 1</p></body></html>`,
		"/p2": `<html><body><p>page 2</p></body></html>`,
		"/p3": `<html><body><p>page 3</p></body></html>`,
	})

	c := newTestCrawler(t, site, types.CrawlConfig{MaxDepth: 1, LinkLimit: 2, Mode: types.ModeDefault})
	results := c.Crawl(context.Background(), site.url("/"))

	if len(results) != 3 {
		t.Fatalf("expected seed + 2 pages, got %d: %v", len(results), keys(results))
	}
	for _, path := range []string{"/", "/p1", "/p2"} {
		if _, ok := results[site.url(path)]; !ok {
			t.Errorf("expected %s in results", path)
		}
	}
	if _, ok := results[site.url("/p3")]; ok {
		t.Error("third internal link exceeds the limit, must not appear")
	}
	if n := site.fetchCount("/p3"); n != 0 {
		t.Errorf("/p3 must never be fetched, got %d fetches", n)
	}
}

func TestCrawlInternalLinksOnly(t *testing.T) {
	site := newTestSite(t, map[string]string{
		"/":   `<html><body><a href="https://external.test/x">ext</a><a href="/in">in</a></body></html>`,
		"/in": `<html><body><p>internal</p></body></html>`,
	})

	c := newTestCrawler(t, site, types.CrawlConfig{MaxDepth: 2, LinkLimit: 5, Mode: types.ModeDefault})
	results := c.Crawl(context.Background(), site.url("/"))

	for u := range results {
		if u != site.url("/") && u != site.url("/in") {
			t.Errorf("unexpected result key %q", u)
		}
	}
}

func TestCrawlHTTPErrorSkipsButMarksVisited(t *testing.T) {
	site := newTestSite(t, map[string]string{
		"/":  `<html><body><a href="/missing">m</a><a href="/a">a</a></body></html>`,
		"/a": `<html><body><a href="/missing">m again</a></body></html>`,
	})

	c := newTestCrawler(t, site, types.CrawlConfig{MaxDepth: 3, LinkLimit: 5, Mode: types.ModeDefault})
	results := c.Crawl(context.Background(), site.url("/"))

	if _, ok := results[site.url("/missing")]; ok {
		t.Error("404 page must be absent from the result map")
	}
	if n := site.fetchCount("/missing"); n != 1 {
		t.Errorf("404 page must not be retried, got %d fetches", n)
	}
}

func TestCrawlRobotsDisallow(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nDisallow: /private/\n")
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><a href="/private/secret">s</a><a href="/open">o</a></body></html>`)
	})
	var privateFetched bool
	mux.HandleFunc("/private/", func(w http.ResponseWriter, r *http.Request) {
		privateFetched = true
	})
	mux.HandleFunc("/open", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><p>open</p></body></html>`)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := New(types.CrawlConfig{RespectRobots: true, MaxDepth: 1, LinkLimit: 5, Mode: types.ModeDefault},
		WithHTTPClient(srv.Client()), WithDelayRange(0, 0))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	results := c.Crawl(context.Background(), srv.URL+"/")

	if privateFetched {
		t.Error("disallowed URL must not be fetched")
	}
	if _, ok := results[srv.URL+"/private/secret"]; ok {
		t.Error("disallowed URL must be absent from results")
	}
	if _, ok := results[srv.URL+"/open"]; !ok {
		t.Error("allowed URL missing from results")
	}
}

func TestCrawlIdempotent(t *testing.T) {
	site := newTestSite(t, map[string]string{
		"/":  `<html><head><title>Seed</title></head><body><a href="/a">a</a></body></html>`,
		"/a": `<html><body><p>static page</p></body></html>`,
	})

	c := newTestCrawler(t, site, types.CrawlConfig{MaxDepth: 2, LinkLimit: 5, Mode: types.ModeDefault})

	first := c.Crawl(context.Background(), site.url("/"))
	second := c.Crawl(context.Background(), site.url("/"))

	if !reflect.DeepEqual(first, second) {
		t.Error("two crawls of a static site must yield equal results")
	}
	if n := site.fetchCount("/"); n != 2 {
		t.Errorf("fresh visited set per call: expected 2 fetches of /, got %d", n)
	}
}

func TestCrawlPageDataContents(t *testing.T) {
	site := newTestSite(t, map[string]string{
		"/": `<html><head>
			<title>Research Hub</title>
			<meta name="description" content="hub desc">
		</head><body>
			<h1>Welcome</h1>
			<p>Some text.</p>
			<img src="/logo.png">
		</body></html>`,
	})

	c := newTestCrawler(t, site, types.CrawlConfig{MaxDepth: 0, LinkLimit: 5, Mode: types.ModeDefault})
	results := c.Crawl(context.Background(), site.url("/"))

	data, ok := results[site.url("/")]
	if !ok {
		t.Fatal("seed missing from results")
	}
	if data.Metadata.Title != "Research Hub" {
		t.Errorf("title = %q", data.Metadata.Title)
	}
	if data.Metadata.Description != "hub desc" {
		t.Errorf("description = %q", data.Metadata.Description)
	}
	if len(data.Resources.Images) != 1 {
		t.Errorf("images = %v", data.Resources.Images)
	}
}

func TestCrawlCancellation(t *testing.T) {
	site := newTestSite(t, map[string]string{
		"/":  `<html><body><a href="/a">a</a></body></html>`,
		"/a": `<html><body><p>a</p></body></html>`,
	})

	c := newTestCrawler(t, site, types.CrawlConfig{MaxDepth: 2, LinkLimit: 5, Mode: types.ModeDefault},
		WithDelayRange(50*time.Millisecond, 100*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := c.Crawl(ctx, site.url("/"))
	if len(results) != 0 {
		t.Errorf("cancelled crawl should return what was accumulated (nothing), got %d", len(results))
	}
}

func keys(m map[string]types.PageData) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
