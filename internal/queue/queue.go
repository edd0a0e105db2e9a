// Package queue implements the durable-broker abstraction that sits between
// the collector and the processor: publish(topic, message) and
// consume(topic, batch) -> lazy sequence of parsed CollectedItems, over
// Redis list mode or stream mode.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sentinel-pipeline/internal/adapter"
	"sentinel-pipeline/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

// ErrQueueUnreachable wraps any Redis-level failure reaching the broker.
var ErrQueueUnreachable = errors.New("queue unreachable")

// Mode selects the Redis primitive backing the queue.
type Mode int

const (
	// ModeList uses RPUSH/BLPOP: a consumer's sequence ends when BLPOP times
	// out with no message, signaling "queue currently drained".
	ModeList Mode = iota

	// ModeStream uses XADD/XREAD from the last-seen ID. Consumer-group
	// plumbing (XREADGROUP/XACK) is present but unused by v1 callers, who
	// read as a single logical consumer.
	ModeStream
)

// Config configures a Client.
type Config struct {
	Mode         Mode
	BlockTimeout time.Duration // how long a consume call blocks waiting for a message before ending its sequence
	ConsumerGroup string       // stream mode only; reserved for future multi-consumer fan-out
	ConsumerName  string       // stream mode only
}

func (c Config) withDefaults() Config {
	if c.BlockTimeout <= 0 {
		c.BlockTimeout = 5 * time.Second
	}
	if c.ConsumerGroup == "" {
		c.ConsumerGroup = "processor"
	}
	if c.ConsumerName == "" {
		c.ConsumerName = "processor-1"
	}
	return c
}

// Client implements publish/consume over Redis, in either list or stream mode.
type Client struct {
	rdb *redis.Client
	cfg Config
}

// New constructs a queue Client over an already-configured *redis.Client.
func New(rdb *redis.Client, cfg Config) *Client {
	return &Client{rdb: rdb, cfg: cfg.withDefaults()}
}

// Publish serializes item to the CollectedItem wire format and appends it to
// topic using the configured mode.
func (c *Client) Publish(ctx context.Context, topic string, item model.CollectedItem) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal queue message: %w", err)
	}

	switch c.cfg.Mode {
	case ModeStream:
		if err := c.rdb.XAdd(ctx, &redis.XAddArgs{
			Stream: topic,
			Values: map[string]interface{}{"data": payload},
		}).Err(); err != nil {
			return fmt.Errorf("%w: xadd: %w", ErrQueueUnreachable, err)
		}
	default:
		if err := c.rdb.RPush(ctx, topic, payload).Err(); err != nil {
			return fmt.Errorf("%w: rpush: %w", ErrQueueUnreachable, err)
		}
	}
	return nil
}

// Consume returns a lazy stream over topic. Each Next call pulls (and
// blocks for up to BlockTimeout on) the next message; the stream ends
// cleanly once a block times out with nothing delivered.
func (c *Client) Consume(ctx context.Context, topic string, batch int) adapter.ItemStream {
	if batch <= 0 {
		batch = 10
	}
	switch c.cfg.Mode {
	case ModeStream:
		return c.consumeStream(topic, batch)
	default:
		return c.consumeList(topic)
	}
}

func (c *Client) consumeList(topic string) adapter.ItemStream {
	return adapter.ItemStreamFunc(func(ctx context.Context) (model.CollectedItem, bool, error) {
		result, err := c.rdb.BLPop(ctx, c.cfg.BlockTimeout, topic).Result()
		if errors.Is(err, redis.Nil) {
			return model.CollectedItem{}, false, nil
		}
		if err != nil {
			return model.CollectedItem{}, false, fmt.Errorf("%w: blpop: %w", ErrQueueUnreachable, err)
		}
		// result is [key, value]
		var item model.CollectedItem
		if err := json.Unmarshal([]byte(result[1]), &item); err != nil {
			return model.CollectedItem{}, false, fmt.Errorf("unmarshal queue message: %w", err)
		}
		return item, true, nil
	})
}

func (c *Client) consumeStream(topic string, batch int) adapter.ItemStream {
	lastID := "0"
	var pending []redis.XMessage
	idx := 0

	return adapter.ItemStreamFunc(func(ctx context.Context) (model.CollectedItem, bool, error) {
		for {
			if idx < len(pending) {
				msg := pending[idx]
				idx++
				lastID = msg.ID
				raw, ok := msg.Values["data"]
				if !ok {
					slog.Warn("queue: stream message missing data field", slog.String("id", msg.ID))
					continue
				}
				var item model.CollectedItem
				if err := json.Unmarshal([]byte(fmt.Sprint(raw)), &item); err != nil {
					return model.CollectedItem{}, false, fmt.Errorf("unmarshal queue message: %w", err)
				}
				return item, true, nil
			}

			streams, err := c.rdb.XRead(ctx, &redis.XReadArgs{
				Streams: []string{topic, lastID},
				Count:   int64(batch),
				Block:   c.cfg.BlockTimeout,
			}).Result()
			if errors.Is(err, redis.Nil) {
				return model.CollectedItem{}, false, nil
			}
			if err != nil {
				return model.CollectedItem{}, false, fmt.Errorf("%w: xread: %w", ErrQueueUnreachable, err)
			}
			if len(streams) == 0 || len(streams[0].Messages) == 0 {
				return model.CollectedItem{}, false, nil
			}
			pending = streams[0].Messages
			idx = 0
		}
	})
}

// EnsureConsumerGroup creates the configured consumer group on topic if it
// does not already exist. Reserved for future multi-consumer fan-out; not
// called by v1's single-logical-consumer processor.
func (c *Client) EnsureConsumerGroup(ctx context.Context, topic string) error {
	err := c.rdb.XGroupCreateMkStream(ctx, topic, c.cfg.ConsumerGroup, "$").Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		// BUSYGROUP is returned as a plain *redis.Error when the group
		// already exists; that's not a failure worth surfacing.
		if !isBusyGroup(err) {
			return fmt.Errorf("%w: xgroup create: %w", ErrQueueUnreachable, err)
		}
	}
	return nil
}

func isBusyGroup(err error) bool {
	return err != nil && len(err.Error()) >= 9 && err.Error()[:9] == "BUSYGROUP"
}

// HealthCheck pings the underlying Redis connection.
func (c *Client) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return c.rdb.Ping(ctx).Err() == nil
}
