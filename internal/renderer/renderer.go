// Package renderer provides optional JavaScript rendering with headless Chrome.
package renderer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// ChromeRenderer renders pages with headless Chrome. It is only consulted
// for pages whose plain HTML looks like a JS application shell.
type ChromeRenderer struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	timeout     time.Duration
}

// New starts a headless Chrome allocator.
func New(userAgent string, timeout time.Duration) (*ChromeRenderer, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &ChromeRenderer{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		timeout:     timeout,
	}, nil
}

// Render navigates to url and returns the post-JS HTML.
func (cr *ChromeRenderer) Render(ctx context.Context, url string) (string, error) {
	tabCtx, cancel := chromedp.NewContext(cr.allocCtx)
	defer cancel()

	tabCtx, timeoutCancel := context.WithTimeout(tabCtx, cr.timeout)
	defer timeoutCancel()

	// Tear the tab down if the crawl itself is cancelled.
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-tabCtx.Done():
		}
	}()

	var htmlContent string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			// Give client-side frameworks a moment to hydrate.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(2 * time.Second):
				return nil
			}
		}),
		chromedp.OuterHTML("html", &htmlContent),
	)
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", url, err)
	}

	return htmlContent, nil
}

// Close shuts down the Chrome allocator.
func (cr *ChromeRenderer) Close() {
	if cr.allocCancel != nil {
		cr.allocCancel()
	}
}

var jsIndicators = []string{
	`<div id="root"></div>`,
	`<div id="app"></div>`,
	"you need to enable javascript",
	"javascript is required",
	"please enable javascript",
	"__next_data__",
	"ng-app",
	"data-reactroot",
}

// ShouldRender reports whether a fetched document looks like an empty JS
// application shell that needs rendering to yield content.
func ShouldRender(htmlContent string) bool {
	if len(htmlContent) < 500 {
		return true
	}

	lower := strings.ToLower(htmlContent)
	for _, indicator := range jsIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}
