package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fortuna/courtside/internal/config"
	"github.com/fortuna/courtside/internal/fetch"
	"github.com/fortuna/courtside/internal/ingest/bref"
	"github.com/fortuna/courtside/internal/pagestore"
	"github.com/fortuna/courtside/internal/progress"
	"github.com/fortuna/courtside/internal/publisher"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl box score pages into the local cache",
	Long:  "Walks season schedules and standings pages on basketball-reference.com, saving every box score HTML page under the data directory. Pages already cached are never refetched.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		return runCrawl(cfg)
	},
}

func init() {
	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := pagestore.New(cfg.DataDir)
	if err != nil {
		return err
	}

	fetcher, err := fetch.NewChromeFetcher(cfg.Fetch.Timeout())
	if err != nil {
		return err
	}
	defer fetcher.Close()

	retrier := fetch.NewRetrier(fetcher, fetch.RetryConfig{
		MaxRetries: cfg.Fetch.MaxRetries,
		BaseDelay:  cfg.Fetch.BaseDelay(),
	})

	sink := crawlProgressSink(ctx, cfg)

	crawler := bref.NewCrawler(retrier, store, cfg.BaseURL, sink)

	seasons := cfg.Seasons.List()
	log.Printf("Crawling seasons %v into %s", seasons, store.DataDir())

	return crawler.Run(ctx, seasons)
}

// crawlProgressSink always logs, and mirrors events to the Redis
// progress stream when Redis is configured.
func crawlProgressSink(ctx context.Context, cfg *config.Config) progress.Sink {
	sinks := progress.MultiSink{progress.LogSink{}}

	if cfg.RedisURL != "" {
		pub, err := publisher.NewRedisPublisher(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️  Redis unavailable, progress events stay local: %v", err)
		} else {
			sinks = append(sinks, pub)
		}
	}

	return sinks
}
