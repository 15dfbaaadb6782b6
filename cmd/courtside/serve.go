package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fortuna/courtside/internal/api/rest"
	"github.com/fortuna/courtside/internal/api/websocket"
	"github.com/fortuna/courtside/internal/cache"
	"github.com/fortuna/courtside/internal/config"
	"github.com/fortuna/courtside/internal/fetch"
	"github.com/fortuna/courtside/internal/ingest/bref"
	"github.com/fortuna/courtside/internal/pagestore"
	"github.com/fortuna/courtside/internal/progress"
	"github.com/fortuna/courtside/internal/publisher"
	"github.com/fortuna/courtside/internal/scheduler"
	"github.com/fortuna/courtside/internal/statsapi"
	"github.com/fortuna/courtside/internal/store"
	"github.com/fortuna/courtside/internal/store/repository"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve game records over HTTP and WebSocket",
	Long:  "Runs the REST API, the WebSocket progress feed and the crawl scheduler. Requires Postgres; Redis is optional.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		return runServe(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// pipeline is the crawl-then-normalize sequence the scheduler drives.
// A fresh browser is launched per run and closed when the run ends.
type pipeline struct {
	cfg      *config.Config
	pages    *pagestore.Store
	progress progress.Sink
	sinks    []bref.RecordSink
}

func (p *pipeline) Crawl(ctx context.Context, seasons []int) error {
	fetcher, err := fetch.NewChromeFetcher(p.cfg.Fetch.Timeout())
	if err != nil {
		return err
	}
	defer fetcher.Close()

	retrier := fetch.NewRetrier(fetcher, fetch.RetryConfig{
		MaxRetries: p.cfg.Fetch.MaxRetries,
		BaseDelay:  p.cfg.Fetch.BaseDelay(),
	})

	return bref.NewCrawler(retrier, p.pages, p.cfg.BaseURL, p.progress).Run(ctx, seasons)
}

func (p *pipeline) Normalize(ctx context.Context) error {
	_, err := bref.NewNormalizer(p.pages, p.progress, p.sinks...).Run(ctx)
	return err
}

func runServe(cfg *config.Config) error {
	log.Printf("Starting %s v%s", serviceName, serviceVersion)

	if cfg.PostgresDSN == "" {
		return errors.New("serve requires POSTGRES_DSN")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	db, err := store.NewDatabase(cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Println("✓ Connected to Postgres")

	if err := db.RunMigrations(); err != nil {
		return err
	}
	log.Println("✓ Database migrations applied")

	records := repository.NewRecordRepository(db)

	// Redis (optional)
	var redisCache *cache.RedisCache
	var redisPublisher *publisher.RedisPublisher
	if cfg.RedisURL != "" {
		redisCache, err = cache.NewRedisCache(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️  Redis cache unavailable: %v", err)
		} else {
			defer redisCache.Close()
			log.Println("✓ Connected to Redis")
		}

		redisPublisher, err = publisher.NewRedisPublisher(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️  Redis publisher unavailable: %v", err)
		} else {
			defer redisPublisher.Close()
		}
	}

	// Stats provider directory
	directory := statsapi.New(cfg.StatsAPIBase, redisCache)

	// WebSocket progress feed
	wsServer := websocket.NewServer()

	// Progress fans out to the log, the WebSocket feed and, when
	// available, the Redis progress stream.
	progressSink := progress.MultiSink{progress.LogSink{}, wsServer}
	recordSinks := []bref.RecordSink{records}
	if redisPublisher != nil {
		progressSink = append(progressSink, redisPublisher)
		recordSinks = append(recordSinks, redisPublisher)
	}

	// Page cache and scheduler
	pages, err := pagestore.New(cfg.DataDir)
	if err != nil {
		return err
	}

	sched := scheduler.NewOrchestrator(&pipeline{
		cfg:      cfg,
		pages:    pages,
		progress: progressSink,
		sinks:    recordSinks,
	}, &scheduler.Config{
		DailyCrawlHour:   cfg.DailyCrawlHour,
		EnableDailyCrawl: cfg.EnableDailyCrawl,
		Seasons:          cfg.Seasons.List(),
		MaxRetries:       cfg.Fetch.MaxRetries,
		RetryDelay:       cfg.Fetch.BaseDelay(),
	})

	go sched.Start(ctx)
	log.Println("✓ Scheduler started")

	// Servers
	restServer := rest.NewServer(cfg.RESTPort, records, sched, db, directory)

	go func() {
		log.Printf("REST API listening on :%s", cfg.RESTPort)
		if err := restServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("REST server failed: %v", err)
		}
	}()

	go func() {
		if err := wsServer.Start(cfg.WSPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("WebSocket server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := restServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️  REST shutdown: %v", err)
	}
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️  WebSocket shutdown: %v", err)
	}

	log.Println("✓ Shutdown complete")
	return nil
}
