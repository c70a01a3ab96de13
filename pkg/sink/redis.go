package sink

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"

	"github.com/meshkit/telemetry/pkg/event"
)

const defaultRedisKey = "telemetry:events"

// RedisSink appends events to a Redis list for downstream consumers.
type RedisSink struct {
	client *redis.Client
	key    string
}

// NewRedisSink creates a Redis sink. An empty key defaults to
// "telemetry:events".
func NewRedisSink(client *redis.Client, key string) *RedisSink {
	if key == "" {
		key = defaultRedisKey
	}
	return &RedisSink{client: client, key: key}
}

func (s *RedisSink) Name() string { return "redis" }

// Client exposes the underlying client for health probes
func (s *RedisSink) Client() *redis.Client { return s.client }

// Deliver RPUSHes each event as a JSON document in a single pipeline.
// A pipeline failure fails the whole batch.
func (s *RedisSink) Deliver(ctx context.Context, batch event.Batch) error {
	pipe := s.client.Pipeline()
	for _, ev := range batch {
		doc, err := json.Marshal(ev)
		if err != nil {
			return &DeliveryError{Sink: s.Name(), Events: len(batch), Err: err}
		}
		pipe.RPush(ctx, s.key, doc)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return &DeliveryError{Sink: s.Name(), Events: len(batch), Err: err}
	}
	return nil
}
