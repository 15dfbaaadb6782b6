package fetch

import (
	"context"
	"fmt"
	"log"
	"time"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 5 * time.Second
)

// RetryConfig controls the retry loop around a PageFetcher.
type RetryConfig struct {
	MaxRetries int           // attempts, not re-attempts
	BaseDelay  time.Duration // attempt i sleeps BaseDelay*i first
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
	}
}

// Retrier wraps a PageFetcher with linear-backoff retries: attempt i
// (1-indexed) sleeps BaseDelay*i before issuing the request. A timeout
// or navigation error is recoverable and moves on to the next attempt;
// exhaustion returns an error the caller must treat as "skip this URL",
// never as fatal to the batch.
type Retrier struct {
	fetcher PageFetcher
	config  RetryConfig
}

// NewRetrier wraps fetcher with the given retry configuration.
func NewRetrier(fetcher PageFetcher, config RetryConfig) *Retrier {
	if config.MaxRetries <= 0 {
		config.MaxRetries = DefaultMaxRetries
	}
	return &Retrier{fetcher: fetcher, config: config}
}

// Fetch retrieves the inner HTML of selector at url, retrying up to
// MaxRetries times.
func (r *Retrier) Fetch(ctx context.Context, url, selector string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(r.config.BaseDelay * time.Duration(attempt)):
		}

		html, err := r.fetcher.Fetch(ctx, url, selector)
		if err == nil {
			return html, nil
		}

		lastErr = err
		log.Printf("  ⚠️  Fetch attempt %d/%d failed for %s: %v", attempt, r.config.MaxRetries, url, err)
	}

	return "", fmt.Errorf("fetch %s exhausted after %d attempts: %w", url, r.config.MaxRetries, lastErr)
}
