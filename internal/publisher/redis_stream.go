// Package publisher pushes normalized records and progress events to
// Redis streams for downstream consumers.
package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fortuna/courtside/internal/ingest/bref"
	"github.com/fortuna/courtside/internal/progress"
)

// Stream names.
const (
	RecordStream   = "games.records.basketball_nba"
	ProgressStream = "crawl.progress.basketball_nba"
)

// RedisPublisher publishes events to Redis streams.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher creates a new Redis stream publisher.
func NewRedisPublisher(redisURL string) (*RedisPublisher, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisPublisher{
		client: client,
	}, nil
}

// Close closes the Redis connection.
func (rp *RedisPublisher) Close() error {
	return rp.client.Close()
}

// StoreRecords publishes a normalized game's records to the record
// stream, satisfying the normalizer's sink contract.
func (rp *RedisPublisher) StoreRecords(ctx context.Context, records []bref.GameRecord) error {
	for _, rec := range records {
		if err := rp.publish(ctx, RecordStream, rec); err != nil {
			return err
		}
	}
	return nil
}

// Publish sends a progress event to the progress stream, satisfying
// the progress sink contract.
func (rp *RedisPublisher) Publish(ctx context.Context, ev progress.Event) error {
	return rp.publish(ctx, ProgressStream, ev)
}

func (rp *RedisPublisher) publish(ctx context.Context, stream string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return rp.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"data":      string(data),
			"timestamp": time.Now().Unix(),
		},
	}).Err()
}
