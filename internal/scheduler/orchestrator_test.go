package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakePipeline struct {
	mu         sync.Mutex
	crawls     int
	normalizes int
	crawlErr   error
	block      chan struct{} // when non-nil, Crawl blocks until closed
}

func (p *fakePipeline) Crawl(ctx context.Context, seasons []int) error {
	p.mu.Lock()
	p.crawls++
	block := p.block
	err := p.crawlErr
	p.mu.Unlock()

	if block != nil {
		<-block
	}
	return err
}

func (p *fakePipeline) Normalize(ctx context.Context) error {
	p.mu.Lock()
	p.normalizes++
	p.mu.Unlock()
	return nil
}

func (p *fakePipeline) counts() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.crawls, p.normalizes
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}

func TestManualTriggerRunsPipeline(t *testing.T) {
	p := &fakePipeline{}
	o := NewOrchestrator(p, &Config{EnableDailyCrawl: false, MaxRetries: 1, Seasons: []int{2022}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go o.Start(ctx)

	if err := o.TriggerManual(); err != nil {
		t.Fatalf("TriggerManual failed: %v", err)
	}

	waitFor(t, func() bool {
		crawls, normalizes := p.counts()
		return crawls == 1 && normalizes == 1
	})
}

func TestTriggerManualWhileRunning(t *testing.T) {
	block := make(chan struct{})
	p := &fakePipeline{block: block}
	o := NewOrchestrator(p, &Config{EnableDailyCrawl: false, MaxRetries: 1})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go o.Start(ctx)

	if err := o.TriggerManual(); err != nil {
		t.Fatalf("TriggerManual failed: %v", err)
	}

	waitFor(t, func() bool {
		return o.Status()["running"] == true
	})

	if err := o.TriggerManual(); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("expected ErrRunInProgress, got %v", err)
	}

	close(block)
	waitFor(t, func() bool {
		return o.Status()["running"] == false
	})
}

func TestPipelineRetries(t *testing.T) {
	p := &fakePipeline{crawlErr: errors.New("fetch failed")}
	o := NewOrchestrator(p, &Config{EnableDailyCrawl: false, MaxRetries: 3, RetryDelay: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go o.Start(ctx)

	if err := o.TriggerManual(); err != nil {
		t.Fatalf("TriggerManual failed: %v", err)
	}

	waitFor(t, func() bool {
		crawls, _ := p.counts()
		return crawls == 3
	})

	waitFor(t, func() bool {
		return o.Status()["last_error"] == "fetch failed"
	})

	// A failed crawl must not reach the normalize phase.
	if _, normalizes := p.counts(); normalizes != 0 {
		t.Errorf("expected 0 normalize calls, got %d", normalizes)
	}
}

func TestStatusBeforeFirstRun(t *testing.T) {
	o := NewOrchestrator(&fakePipeline{}, &Config{EnableDailyCrawl: true, DailyCrawlHour: 3})

	status := o.Status()
	if status["running"] != false {
		t.Errorf("expected not running, got %v", status["running"])
	}
	if _, ok := status["last_run"]; ok {
		t.Error("last_run should be absent before the first run")
	}
}
