package bref

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fortuna/courtside/internal/fetch"
	"github.com/fortuna/courtside/internal/pagestore"
	"github.com/fortuna/courtside/internal/progress"
)

// Selectors for the three page shapes the crawl touches.
const (
	selectorScheduleFilter = "#content .filter"
	selectorSchedule       = "#all_schedule"
	selectorBoxScore       = "#content"
)

// Crawler walks seasons → standings pages → box-score pages, caching
// every page it fetches. A failed fetch for one link is logged and
// skipped; resumability comes entirely from the page store's existence
// checks.
type Crawler struct {
	fetcher  fetch.PageFetcher
	store    *pagestore.Store
	baseURL  string
	progress progress.Sink
}

// NewCrawler creates a crawler over the given fetcher and store.
// A nil progress sink falls back to plain logging.
func NewCrawler(fetcher fetch.PageFetcher, store *pagestore.Store, baseURL string, sink progress.Sink) *Crawler {
	if baseURL == "" {
		baseURL = BaseURL
	}
	if sink == nil {
		sink = progress.LogSink{}
	}
	return &Crawler{
		fetcher:  fetcher,
		store:    store,
		baseURL:  baseURL,
		progress: sink,
	}
}

// Run crawls the configured seasons: first all standings pages, then
// every box score they link to.
func (c *Crawler) Run(ctx context.Context, seasons []int) error {
	for _, season := range seasons {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.CrawlSeason(ctx, season); err != nil {
			return err
		}
		log.Printf("✓ Finished crawling season %d standings", season)
	}

	standings, err := c.store.List(pagestore.RoleStandings)
	if err != nil {
		return fmt.Errorf("listing standings pages: %w", err)
	}

	for _, season := range seasons {
		token := strconv.Itoa(season)
		for _, path := range standings {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !strings.Contains(filepath.Base(path), token) {
				continue
			}
			if err := c.CrawlBoxScores(ctx, path); err != nil {
				return err
			}
		}
		log.Printf("✓ Finished crawling season %d box scores", season)
	}

	return nil
}

// CrawlSeason fetches a season's schedule-filter page, extracts the
// per-month standings links, and caches each standings page not already
// present.
func (c *Crawler) CrawlSeason(ctx context.Context, season int) error {
	url := fmt.Sprintf("%s/leagues/NBA_%d_games.html", c.baseURL, season)

	html, err := c.fetcher.Fetch(ctx, url, selectorScheduleFilter)
	if err != nil {
		log.Printf("  ⚠️  Skipping season %d filter page: %v", season, err)
		return nil
	}

	doc, err := ParseDocument(html)
	if err != nil {
		log.Printf("  ⚠️  Skipping season %d: %v", season, err)
		return nil
	}

	links := ExtractLinks(doc, c.baseURL, nil)
	for i, link := range links {
		if err := ctx.Err(); err != nil {
			return err
		}

		path := c.store.PathFor(pagestore.RoleStandings, link)
		if c.store.Contains(path) {
			continue
		}

		pageHTML, err := c.fetcher.Fetch(ctx, link, selectorSchedule)
		if err != nil {
			log.Printf("  ⚠️  Skipping standings page %s: %v", link, err)
			continue
		}
		if err := c.store.Put(path, pageHTML); err != nil {
			return fmt.Errorf("caching standings page: %w", err)
		}

		c.publish(ctx, "crawl", i+1, len(links), filepath.Base(path))
	}

	return nil
}

// CrawlBoxScores extracts box-score links from one cached standings
// page and caches each box score not already present.
func (c *Crawler) CrawlBoxScores(ctx context.Context, standingsPath string) error {
	html, err := c.store.Read(standingsPath)
	if err != nil {
		log.Printf("  ⚠️  Skipping standings file %s: %v", standingsPath, err)
		return nil
	}

	doc, err := ParseDocument(html)
	if err != nil {
		log.Printf("  ⚠️  Skipping standings file %s: %v", standingsPath, err)
		return nil
	}

	links := ExtractLinks(doc, c.baseURL, IsBoxScoreLink)
	for i, link := range links {
		if err := ctx.Err(); err != nil {
			return err
		}

		path := c.store.PathFor(pagestore.RoleScores, link)
		if c.store.Contains(path) {
			continue
		}

		pageHTML, err := c.fetcher.Fetch(ctx, link, selectorBoxScore)
		if err != nil {
			log.Printf("  ⚠️  Skipping box score %s: %v", link, err)
			continue
		}
		if err := c.store.Put(path, pageHTML); err != nil {
			return fmt.Errorf("caching box score: %w", err)
		}

		c.publish(ctx, "crawl", i+1, len(links), filepath.Base(path))
	}

	return nil
}

func (c *Crawler) publish(ctx context.Context, stage string, done, total int, detail string) {
	ev := progress.Event{
		Stage:     stage,
		Done:      done,
		Total:     total,
		Detail:    detail,
		Timestamp: time.Now(),
	}
	if err := c.progress.Publish(ctx, ev); err != nil {
		log.Printf("  ⚠️  Failed to publish progress: %v", err)
	}
}
