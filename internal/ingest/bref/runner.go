package bref

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/fortuna/courtside/internal/pagestore"
	"github.com/fortuna/courtside/internal/progress"
)

// progressEvery controls how often the normalize phase reports.
const progressEvery = 100

// RecordSink receives the two records of a normalized game. Sinks that
// fail are logged and skipped; normalization itself never stops for a
// sink error.
type RecordSink interface {
	StoreRecords(ctx context.Context, records []GameRecord) error
}

// Normalizer runs the parse/normalize phase over every cached box
// score. Each file's output is independent; results are combined by
// simple concatenation at the end.
type Normalizer struct {
	store    *pagestore.Store
	progress progress.Sink
	sinks    []RecordSink
}

// NewNormalizer creates a batch normalizer. A nil progress sink falls
// back to plain logging.
func NewNormalizer(store *pagestore.Store, sink progress.Sink, sinks ...RecordSink) *Normalizer {
	if sink == nil {
		sink = progress.LogSink{}
	}
	return &Normalizer{store: store, progress: sink, sinks: sinks}
}

// Run parses every cached box score and returns the concatenated game
// records. Structural parse failures, empty tables, and malformed dates
// abort only their own game; an entirely empty batch is called out so
// "ran but found no data" is distinguishable from a crash.
func (n *Normalizer) Run(ctx context.Context) ([]GameRecord, error) {
	paths, err := n.store.List(pagestore.RoleScores)
	if err != nil {
		return nil, err
	}

	var all []GameRecord
	games := 0

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return all, err
		}

		doc, err := ParseFile(path)
		if err != nil {
			log.Printf("  ⚠️  Skipping %s: %v", filepath.Base(path), err)
			continue
		}

		records, err := Normalize(doc, filepath.Base(path))
		if err != nil {
			log.Printf("  ⚠️  Skipping %s: %v", filepath.Base(path), err)
			continue
		}
		if len(records) == 0 {
			continue
		}

		for _, sink := range n.sinks {
			if err := sink.StoreRecords(ctx, records); err != nil {
				log.Printf("  ⚠️  Record sink failed for %s: %v", filepath.Base(path), err)
			}
		}

		all = append(all, records...)
		games++

		if games%progressEvery == 0 {
			ev := progress.Event{
				Stage:     "normalize",
				Done:      games,
				Total:     len(paths),
				Detail:    "games processed",
				Timestamp: time.Now(),
			}
			if err := n.progress.Publish(ctx, ev); err != nil {
				log.Printf("  ⚠️  Failed to publish progress: %v", err)
			}
		}
	}

	if len(all) == 0 {
		log.Printf("⚠️  No box scores yielded any records (%d files scanned)", len(paths))
	} else {
		log.Printf("✓ Normalized %d games into %d records", games, len(all))
	}

	return all, nil
}
