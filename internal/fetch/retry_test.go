package fetch

import (
	"context"
	"errors"
	"testing"
)

// fakeFetcher scripts attempt outcomes and counts calls.
type fakeFetcher struct {
	calls   int
	results []fakeResult
}

type fakeResult struct {
	html string
	err  error
}

func (f *fakeFetcher) Fetch(ctx context.Context, url, selector string) (string, error) {
	i := f.calls
	f.calls++
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	return f.results[i].html, f.results[i].err
}

func TestRetryBound(t *testing.T) {
	// A fetcher that always times out must be attempted exactly
	// MaxRetries times and yield no content.
	fake := &fakeFetcher{results: []fakeResult{{"", context.DeadlineExceeded}}}
	r := NewRetrier(fake, RetryConfig{MaxRetries: 3, BaseDelay: 0})

	html, err := r.Fetch(context.Background(), "https://example.com/page.html", "#content")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if html != "" {
		t.Errorf("expected no content, got %q", html)
	}
	if fake.calls != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", fake.calls)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected wrapped timeout error, got %v", err)
	}
}

func TestRetryRecoversAfterTimeout(t *testing.T) {
	fake := &fakeFetcher{results: []fakeResult{
		{"", context.DeadlineExceeded},
		{"<div>schedule</div>", nil},
	}}
	r := NewRetrier(fake, RetryConfig{MaxRetries: 3, BaseDelay: 0})

	html, err := r.Fetch(context.Background(), "https://example.com/page.html", "#content")
	if err != nil {
		t.Fatalf("expected recovery on second attempt, got %v", err)
	}
	if html != "<div>schedule</div>" {
		t.Errorf("unexpected html: %q", html)
	}
	if fake.calls != 2 {
		t.Errorf("expected 2 attempts, got %d", fake.calls)
	}
}

func TestRetryFirstAttemptSucceeds(t *testing.T) {
	fake := &fakeFetcher{results: []fakeResult{{"<p>ok</p>", nil}}}
	r := NewRetrier(fake, RetryConfig{MaxRetries: 3, BaseDelay: 0})

	html, err := r.Fetch(context.Background(), "https://example.com/page.html", "#content")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if html != "<p>ok</p>" {
		t.Errorf("unexpected html: %q", html)
	}
	if fake.calls != 1 {
		t.Errorf("expected 1 attempt, got %d", fake.calls)
	}
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	fake := &fakeFetcher{results: []fakeResult{{"", errors.New("nav error")}}}
	r := NewRetrier(fake, RetryConfig{MaxRetries: 3, BaseDelay: 0})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Fetch(ctx, "https://example.com/page.html", "#content")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if fake.calls != 0 {
		t.Errorf("expected no attempts after cancellation, got %d", fake.calls)
	}
}
