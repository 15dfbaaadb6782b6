// Package progress carries operator-visible progress events from the
// crawl and normalize phases to whoever is listening (log, Redis
// stream, WebSocket clients).
package progress

import (
	"context"
	"log"
	"time"
)

// Event is one progress notification.
type Event struct {
	Stage     string    `json:"stage"` // "crawl" | "normalize"
	Done      int       `json:"done"`
	Total     int       `json:"total"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Sink receives progress events. Publish errors are advisory: emitters
// log and keep going.
type Sink interface {
	Publish(ctx context.Context, ev Event) error
}

// LogSink writes events to the standard logger.
type LogSink struct{}

func (LogSink) Publish(ctx context.Context, ev Event) error {
	if ev.Total > 0 {
		log.Printf("  [%s] %d / %d %s", ev.Stage, ev.Done, ev.Total, ev.Detail)
	} else {
		log.Printf("  [%s] %d %s", ev.Stage, ev.Done, ev.Detail)
	}
	return nil
}

// MultiSink fans an event out to several sinks.
type MultiSink []Sink

func (m MultiSink) Publish(ctx context.Context, ev Event) error {
	var firstErr error
	for _, s := range m {
		if err := s.Publish(ctx, ev); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
