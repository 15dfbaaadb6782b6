// Package scheduler runs the crawl and normalize pipeline on a daily
// schedule and on manual triggers.
package scheduler

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// Pipeline is the crawl-then-normalize sequence the scheduler drives.
type Pipeline interface {
	Crawl(ctx context.Context, seasons []int) error
	Normalize(ctx context.Context) error
}

// Config holds scheduler configuration
type Config struct {
	DailyCrawlHour   int  // Default: 3 (3 AM)
	EnableDailyCrawl bool // Default: true
	Seasons          []int
	MaxRetries       int           // Default: 3
	RetryDelay       time.Duration // Default: 5s
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() *Config {
	return &Config{
		DailyCrawlHour:   3,
		EnableDailyCrawl: true,
		MaxRetries:       3,
		RetryDelay:       5 * time.Second,
	}
}

// ErrRunInProgress is returned by TriggerManual while a run is active.
var ErrRunInProgress = errors.New("crawl already in progress")

// Orchestrator manages scheduled pipeline runs
type Orchestrator struct {
	pipeline Pipeline
	config   *Config
	triggers chan struct{}

	mu           sync.Mutex
	running      bool
	lastRun      time.Time
	lastErr      string
	lastDuration time.Duration
}

// NewOrchestrator creates a new scheduler orchestrator
func NewOrchestrator(pipeline Pipeline, config *Config) *Orchestrator {
	if config == nil {
		config = DefaultConfig()
	}

	return &Orchestrator{
		pipeline: pipeline,
		config:   config,
		triggers: make(chan struct{}, 1),
	}
}

// Start runs the scheduler loop until the context is cancelled.
func (o *Orchestrator) Start(ctx context.Context) {
	log.Printf("→ Crawl scheduler started (daily: %v at %02d:00, seasons: %v)",
		o.config.EnableDailyCrawl, o.config.DailyCrawlHour, o.config.Seasons)

	for {
		var daily <-chan time.Time
		if o.config.EnableDailyCrawl {
			wait := time.Until(o.nextRunTime())
			daily = time.After(wait)
		}

		select {
		case <-ctx.Done():
			log.Println("→ Crawl scheduler stopped")
			return
		case <-daily:
			log.Println("═══ Daily Crawl Starting ═══")
			o.runPipelineWithRetry(ctx)
			log.Println("═══ Daily Crawl Complete ═══")
		case <-o.triggers:
			log.Println("═══ Manual Crawl Starting ═══")
			o.runPipelineWithRetry(ctx)
			log.Println("═══ Manual Crawl Complete ═══")
		}
	}
}

// TriggerManual queues an immediate pipeline run.
func (o *Orchestrator) TriggerManual() error {
	o.mu.Lock()
	running := o.running
	o.mu.Unlock()

	if running {
		return ErrRunInProgress
	}

	select {
	case o.triggers <- struct{}{}:
		return nil
	default:
		return ErrRunInProgress
	}
}

// Status reports the scheduler's current state.
func (o *Orchestrator) Status() map[string]interface{} {
	o.mu.Lock()
	defer o.mu.Unlock()

	status := map[string]interface{}{
		"running":       o.running,
		"daily_enabled": o.config.EnableDailyCrawl,
		"daily_hour":    o.config.DailyCrawlHour,
		"seasons":       o.config.Seasons,
	}

	if !o.lastRun.IsZero() {
		status["last_run"] = o.lastRun.Format(time.RFC3339)
		status["last_duration"] = o.lastDuration.Round(time.Second).String()
		status["last_error"] = o.lastErr
	}

	return status
}

// nextRunTime returns the next daily run boundary.
func (o *Orchestrator) nextRunTime() time.Time {
	now := time.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), o.config.DailyCrawlHour, 0, 0, 0, now.Location())
	if now.After(next) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

// runPipelineWithRetry runs crawl then normalize, retrying the whole
// sequence on failure.
func (o *Orchestrator) runPipelineWithRetry(ctx context.Context) {
	o.mu.Lock()
	o.running = true
	o.mu.Unlock()

	start := time.Now()
	var err error

	for attempt := 1; attempt <= o.config.MaxRetries; attempt++ {
		err = o.runPipeline(ctx)
		if err == nil {
			break
		}

		log.Printf("  ⚠️  Pipeline attempt %d/%d failed: %v", attempt, o.config.MaxRetries, err)

		if attempt < o.config.MaxRetries {
			log.Printf("  Retrying in %v...", o.config.RetryDelay)
			select {
			case <-ctx.Done():
				err = ctx.Err()
				attempt = o.config.MaxRetries
			case <-time.After(o.config.RetryDelay):
			}
		}
	}

	o.mu.Lock()
	o.running = false
	o.lastRun = start
	o.lastDuration = time.Since(start)
	if err != nil {
		o.lastErr = err.Error()
	} else {
		o.lastErr = ""
	}
	o.mu.Unlock()

	if err != nil {
		log.Printf("❌ Pipeline failed after %d attempts: %v", o.config.MaxRetries, err)
		return
	}

	log.Printf("✓ Pipeline complete in %v", time.Since(start).Round(time.Second))
}

func (o *Orchestrator) runPipeline(ctx context.Context) error {
	if err := o.pipeline.Crawl(ctx, o.config.Seasons); err != nil {
		return err
	}
	return o.pipeline.Normalize(ctx)
}
