package events

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultGroup is the consumer group used by the admin tooling.
const DefaultGroup = "surveyhub:watchers"

// Handler processes one event. Returning an error leaves the message pending
// so it is reclaimed later.
type Handler func(ctx context.Context, event *Event) error

// Consumer reads session events through a Redis consumer group.
type Consumer struct {
	rdb     *redis.Client
	stream  string
	group   string
	name    string
	minIdle time.Duration
	block   time.Duration
	batch   int64
	handler Handler
	onError func(error)
}

// NewConsumer builds a consumer named after the host and pid.
func NewConsumer(rdb *redis.Client, group string, handler Handler) *Consumer {
	if group == "" {
		group = DefaultGroup
	}
	hostname, _ := os.Hostname()
	return &Consumer{
		rdb:     rdb,
		stream:  StreamKey,
		group:   group,
		name:    fmt.Sprintf("consumer-%s-%d", hostname, os.Getpid()),
		minIdle: 30 * time.Second,
		block:   time.Second,
		batch:   100,
		handler: handler,
		onError: func(error) {},
	}
}

// OnError registers a callback for read and decode failures.
func (c *Consumer) OnError(fn func(error)) {
	if fn != nil {
		c.onError = fn
	}
}

// Run creates the group if needed and consumes until ctx is done.
func (c *Consumer) Run(ctx context.Context) error {
	if c == nil || c.rdb == nil {
		return ErrRedisUnavailable
	}
	err := c.rdb.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group: %w", err)
	}

	for ctx.Err() == nil {
		streams, err := c.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.group,
			Consumer: c.name,
			Streams:  []string{c.stream, ">"},
			Count:    c.batch,
			Block:    c.block,
		}).Result()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			if ctx.Err() != nil {
				break
			}
			c.onError(err)
			sleep(ctx, time.Second)
		default:
			for _, s := range streams {
				c.handleAll(ctx, s.Messages)
			}
		}
		c.reclaim(ctx)
	}
	return nil
}

func (c *Consumer) handleAll(ctx context.Context, messages []redis.XMessage) {
	for _, msg := range messages {
		if err := c.process(ctx, msg); err != nil {
			c.onError(err)
			continue
		}
		if err := c.rdb.XAck(ctx, c.stream, c.group, msg.ID).Err(); err != nil {
			c.onError(err)
		}
	}
}

// reclaim takes over messages another consumer left pending for too long.
func (c *Consumer) reclaim(ctx context.Context) {
	pending, err := c.rdb.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: c.stream,
		Group:  c.group,
		Start:  "-",
		End:    "+",
		Count:  c.batch,
	}).Result()
	if err != nil {
		return
	}

	var stale []string
	for _, p := range pending {
		if p.Idle > c.minIdle {
			stale = append(stale, p.ID)
		}
	}
	if len(stale) == 0 {
		return
	}
	claimed, err := c.rdb.XClaim(ctx, &redis.XClaimArgs{
		Stream:   c.stream,
		Group:    c.group,
		Consumer: c.name,
		MinIdle:  c.minIdle,
		Messages: stale,
	}).Result()
	if err == nil {
		c.handleAll(ctx, claimed)
	}
}

func (c *Consumer) process(ctx context.Context, msg redis.XMessage) error {
	event, err := decodeMessage(msg)
	if err != nil {
		return err
	}
	return c.handler(ctx, event)
}

func decodeMessage(msg redis.XMessage) (*Event, error) {
	data, ok := msg.Values["data"].(string)
	if !ok {
		return nil, fmt.Errorf("message %s: missing data field", msg.ID)
	}
	event, err := UnmarshalEvent(data)
	if err != nil {
		return nil, fmt.Errorf("message %s: %w", msg.ID, err)
	}
	return event, nil
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
