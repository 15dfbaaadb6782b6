package bref

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/fortuna/courtside/internal/pagestore"
)

// scriptedFetcher serves canned HTML per URL and records every call.
type scriptedFetcher struct {
	pages map[string]string
	calls []string
}

func (f *scriptedFetcher) Fetch(ctx context.Context, url, selector string) (string, error) {
	f.calls = append(f.calls, url)
	html, ok := f.pages[url]
	if !ok {
		return "", errors.New("navigation failed")
	}
	return html, nil
}

func newTestStore(t *testing.T) *pagestore.Store {
	t.Helper()
	store, err := pagestore.New(t.TempDir())
	if err != nil {
		t.Fatalf("pagestore.New failed: %v", err)
	}
	return store
}

func TestCrawlSeasonCachesStandingsPages(t *testing.T) {
	filterURL := BaseURL + "/leagues/NBA_2022_games.html"
	octURL := BaseURL + "/leagues/NBA_2022_games-october.html"
	novURL := BaseURL + "/leagues/NBA_2022_games-november.html"

	fetcher := &scriptedFetcher{pages: map[string]string{
		filterURL: `<div><a href="/leagues/NBA_2022_games-october.html">Oct</a><a href="/leagues/NBA_2022_games-november.html">Nov</a></div>`,
		octURL:    "<table>october schedule</table>",
		novURL:    "<table>november schedule</table>",
	}}

	store := newTestStore(t)
	c := NewCrawler(fetcher, store, BaseURL, nil)

	if err := c.CrawlSeason(context.Background(), 2022); err != nil {
		t.Fatalf("CrawlSeason failed: %v", err)
	}

	for _, url := range []string{octURL, novURL} {
		path := store.PathFor(pagestore.RoleStandings, url)
		if !store.Contains(path) {
			t.Errorf("expected %s to be cached", url)
		}
	}
	if len(fetcher.calls) != 3 {
		t.Errorf("expected 3 fetches (filter + 2 pages), got %d", len(fetcher.calls))
	}
}

func TestCrawlSeasonIdempotentCaching(t *testing.T) {
	filterURL := BaseURL + "/leagues/NBA_2022_games.html"
	octURL := BaseURL + "/leagues/NBA_2022_games-october.html"

	fetcher := &scriptedFetcher{pages: map[string]string{
		filterURL: `<div><a href="/leagues/NBA_2022_games-october.html">Oct</a></div>`,
		octURL:    "<table>october schedule</table>",
	}}

	store := newTestStore(t)
	path := store.PathFor(pagestore.RoleStandings, octURL)
	if err := store.Put(path, "<table>already here</table>"); err != nil {
		t.Fatalf("seeding cache: %v", err)
	}

	c := NewCrawler(fetcher, store, BaseURL, nil)
	if err := c.CrawlSeason(context.Background(), 2022); err != nil {
		t.Fatalf("CrawlSeason failed: %v", err)
	}

	// Only the filter page is fetched; the cached page triggers zero
	// network calls and its content is untouched.
	if len(fetcher.calls) != 1 {
		t.Errorf("expected 1 fetch, got %d: %v", len(fetcher.calls), fetcher.calls)
	}
	content, err := store.Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if content != "<table>already here</table>" {
		t.Error("cached content was overwritten")
	}
}

func TestCrawlBoxScoresSkipsFailedFetches(t *testing.T) {
	goodURL := BaseURL + "/boxscores/202201150LAL.html"
	badURL := BaseURL + "/boxscores/202201160BOS.html"

	fetcher := &scriptedFetcher{pages: map[string]string{
		goodURL: "<div>box score</div>",
		// badURL absent: every fetch for it fails
	}}

	store := newTestStore(t)
	standingsPath := store.PathFor(pagestore.RoleStandings, "NBA_2022_games-january.html")
	standingsHTML := `<div><a href="/boxscores/202201150LAL.html">g1</a><a href="/boxscores/202201160BOS.html">g2</a></div>`
	if err := store.Put(standingsPath, standingsHTML); err != nil {
		t.Fatalf("seeding standings: %v", err)
	}

	c := NewCrawler(fetcher, store, BaseURL, nil)
	if err := c.CrawlBoxScores(context.Background(), standingsPath); err != nil {
		t.Fatalf("CrawlBoxScores failed: %v", err)
	}

	// The failed link is skipped, not fatal; the good one is cached.
	if !store.Contains(store.PathFor(pagestore.RoleScores, goodURL)) {
		t.Error("good box score should be cached")
	}
	if store.Contains(store.PathFor(pagestore.RoleScores, badURL)) {
		t.Error("failed box score should not be cached")
	}
}

func TestCrawlSeasonSurvivesFilterFailure(t *testing.T) {
	fetcher := &scriptedFetcher{pages: map[string]string{}}
	store := newTestStore(t)

	c := NewCrawler(fetcher, store, BaseURL, nil)
	if err := c.CrawlSeason(context.Background(), 2022); err != nil {
		t.Fatalf("a failed filter fetch must not be fatal, got %v", err)
	}
}

func TestRunHonorsContextCancellation(t *testing.T) {
	fetcher := &scriptedFetcher{pages: map[string]string{}}
	store := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewCrawler(fetcher, store, BaseURL, nil)
	if err := c.Run(ctx, []int{2022}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestNormalizerRunSkipsBrokenFiles(t *testing.T) {
	store := newTestStore(t)

	good, err := os.ReadFile("testdata/202201150LAL.html")
	if err != nil {
		t.Fatalf("loading fixture: %v", err)
	}

	goodPath := store.PathFor(pagestore.RoleScores, "https://example.com/boxscores/202201150LAL.html")
	if err := store.Put(goodPath, string(good)); err != nil {
		t.Fatalf("seeding good box score: %v", err)
	}

	brokenPath := store.PathFor(pagestore.RoleScores, "https://example.com/boxscores/202201160BOS.html")
	if err := store.Put(brokenPath, "<div>no line score here</div>"); err != nil {
		t.Fatalf("seeding broken box score: %v", err)
	}

	n := NewNormalizer(store, nil)
	records, err := n.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// The broken file leaks no partial record; the good game still
	// contributes its two rows.
	if len(records) != 2 {
		t.Fatalf("expected 2 records from the good game only, got %d", len(records))
	}
	for _, r := range records {
		if r.Season != "2022" {
			t.Errorf("unexpected season %q", r.Season)
		}
	}
}

func TestNormalizerRunEmptyBatch(t *testing.T) {
	store := newTestStore(t)

	n := NewNormalizer(store, nil)
	records, err := n.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

// collectingSink records everything it receives.
type collectingSink struct {
	records []GameRecord
}

func (s *collectingSink) StoreRecords(ctx context.Context, records []GameRecord) error {
	s.records = append(s.records, records...)
	return nil
}

func TestNormalizerRunFeedsSinks(t *testing.T) {
	store := newTestStore(t)

	good, err := os.ReadFile("testdata/202201150LAL.html")
	if err != nil {
		t.Fatalf("loading fixture: %v", err)
	}
	path := store.PathFor(pagestore.RoleScores, "https://example.com/boxscores/202201150LAL.html")
	if err := store.Put(path, string(good)); err != nil {
		t.Fatalf("seeding box score: %v", err)
	}

	sink := &collectingSink{}
	n := NewNormalizer(store, nil, sink)
	if _, err := n.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(sink.records) != 2 {
		t.Errorf("expected sink to receive 2 records, got %d", len(sink.records))
	}
}
