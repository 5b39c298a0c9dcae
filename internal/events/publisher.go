package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// StreamKey is the Redis stream every session event is appended to.
const StreamKey = "surveyhub:session-events"

var ErrRedisUnavailable = errors.New("redis client not available")

// Publisher appends session events somewhere downstream consumers can read.
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
}

// NopPublisher drops events. Used when Redis is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *Event) error { return nil }

// RedisPublisher writes events to a capped Redis stream.
type RedisPublisher struct {
	rdb    *redis.Client
	stream string
	maxLen int64
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, stream: StreamKey, maxLen: 10000}
}

// Publish adds the event to the stream with an approximate MAXLEN bound.
func (p *RedisPublisher) Publish(ctx context.Context, event *Event) error {
	if p == nil || p.rdb == nil {
		return ErrRedisUnavailable
	}
	data, err := MarshalEvent(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	_, err = p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"type":      event.Type,
			"sessionId": event.SessionID,
			"data":      data,
		},
		MaxLen: p.maxLen,
		Approx: true,
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
