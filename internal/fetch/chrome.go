// Package fetch retrieves a page's inner HTML for a CSS selector using
// a headless browser, with linear-backoff retries around each attempt.
package fetch

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	// UserAgent for requests
	UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// MinRequestInterval to prevent rate limiting
	MinRequestInterval = 2 * time.Second

	// DefaultAttemptTimeout bounds a single navigate + extract attempt
	DefaultAttemptTimeout = 30 * time.Second
)

// PageFetcher retrieves the inner HTML of the DOM node matching selector
// on the page at url. An empty result with a nil error never occurs:
// failure is always an error.
type PageFetcher interface {
	Fetch(ctx context.Context, url, selector string) (string, error)
}

// ChromeFetcher drives a headless Chrome instance. Each Fetch call gets
// its own browser context, torn down whether the attempt succeeds or
// fails.
type ChromeFetcher struct {
	lastRequest time.Time
	interval    time.Duration
	timeout     time.Duration

	allocCtx context.Context
	cancel   context.CancelFunc
}

// NewChromeFetcher creates a headless browser fetcher.
func NewChromeFetcher(timeout time.Duration) (*ChromeFetcher, error) {
	if timeout <= 0 {
		timeout = DefaultAttemptTimeout
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(UserAgent),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &ChromeFetcher{
		lastRequest: time.Time{},
		interval:    MinRequestInterval,
		timeout:     timeout,
		allocCtx:    allocCtx,
		cancel:      cancel,
	}, nil
}

// Close releases the browser allocator.
func (f *ChromeFetcher) Close() {
	if f.cancel != nil {
		f.cancel()
	}
}

// Fetch performs one attempt: navigate to url and extract the inner
// HTML of selector. Rate limiting is enforced between calls.
func (f *ChromeFetcher) Fetch(ctx context.Context, url, selector string) (string, error) {
	if !f.lastRequest.IsZero() {
		elapsed := time.Since(f.lastRequest)
		if elapsed < f.interval {
			waitTime := f.interval - elapsed
			log.Printf("Rate limiting: waiting %v before next request", waitTime)
			time.Sleep(waitTime)
		}
	}

	html, err := f.fetch(ctx, url, selector)
	f.lastRequest = time.Now()

	return html, err
}

// fetch runs the chromedp tasks inside a fresh browser context.
func (f *ChromeFetcher) fetch(ctx context.Context, url, selector string) (string, error) {
	browserCtx, cancel := chromedp.NewContext(f.allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, f.timeout)
	defer cancel()

	// Propagate caller cancellation into the browser context.
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-browserCtx.Done():
		}
	}()

	var htmlContent string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible(`body`, chromedp.ByQuery),
		chromedp.InnerHTML(selector, &htmlContent, chromedp.ByQuery),
	)

	if err != nil {
		return "", fmt.Errorf("chromedp error: %w", err)
	}

	if htmlContent == "" {
		return "", fmt.Errorf("empty HTML content returned for %s", selector)
	}

	return htmlContent, nil
}
