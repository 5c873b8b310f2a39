package queue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Message is one like event read from the stream.
type Message struct {
	ID    string // stream entry ID, e.g. "1702000000000-0"
	Event LikeEvent
}

// Consumer reads like events as one member of a consumer group.
// A Consumer is bound to a single stream and group.
type Consumer interface {
	// EnsureGroup creates the group (and the stream) if missing.
	EnsureGroup(ctx context.Context) error

	// Read blocks up to block for entries never delivered to any consumer.
	Read(ctx context.Context, consumer string, count int64, block time.Duration) ([]Message, error)

	// ReadPending returns entries delivered to consumer but not acknowledged.
	ReadPending(ctx context.Context, consumer string, count int64) ([]Message, error)

	// Claim takes over entries that other consumers left pending for at least minIdle.
	Claim(ctx context.Context, consumer string, minIdle time.Duration, count int64) ([]Message, error)

	Ack(ctx context.Context, messageIDs ...string) error

	// Pending returns the group's count of unacknowledged entries.
	Pending(ctx context.Context) (int64, error)
}

// RedisConsumer implements Consumer with XREADGROUP / XAUTOCLAIM.
type RedisConsumer struct {
	client *redis.Client
	stream string
	group  string
}

func NewConsumer(client *redis.Client, stream, group string) Consumer {
	return &RedisConsumer{client: client, stream: stream, group: group}
}

// EnsureGroup starts the group at "0" so toggles recorded before the first
// worker came up are still reconciled.
func (c *RedisConsumer) EnsureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		log.Printf("[Consumer] EnsureGroup FAILED: stream=%s group=%s err=%v", c.stream, c.group, err)
		return fmt.Errorf("create consumer group: %w", err)
	}
	return nil
}

func (c *RedisConsumer) Read(ctx context.Context, consumer string, count int64, block time.Duration) ([]Message, error) {
	return c.readGroup(ctx, consumer, ">", count, block)
}

func (c *RedisConsumer) ReadPending(ctx context.Context, consumer string, count int64) ([]Message, error) {
	// A non-">" ID reads this consumer's own pending list and never blocks.
	return c.readGroup(ctx, consumer, "0", count, -1)
}

func (c *RedisConsumer) readGroup(ctx context.Context, consumer, id string, count int64, block time.Duration) ([]Message, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: consumer,
		Streams:  []string{c.stream, id},
		Count:    count,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xreadgroup %s: %w", id, err)
	}

	var entries []redis.XMessage
	for _, s := range streams {
		entries = append(entries, s.Messages...)
	}
	return c.decode(ctx, entries), nil
}

func (c *RedisConsumer) Claim(ctx context.Context, consumer string, minIdle time.Duration, count int64) ([]Message, error) {
	entries, _, err := c.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   c.stream,
		Group:    c.group,
		Consumer: consumer,
		MinIdle:  minIdle,
		Start:    "0-0",
		Count:    count,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("xautoclaim: %w", err)
	}
	if len(entries) > 0 {
		log.Printf("[Consumer] Claimed %d idle entries for %s", len(entries), consumer)
	}
	return c.decode(ctx, entries), nil
}

func (c *RedisConsumer) Ack(ctx context.Context, messageIDs ...string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	if err := c.client.XAck(ctx, c.stream, c.group, messageIDs...).Err(); err != nil {
		return fmt.Errorf("xack: %w", err)
	}
	return nil
}

func (c *RedisConsumer) Pending(ctx context.Context) (int64, error) {
	info, err := c.client.XPending(ctx, c.stream, c.group).Result()
	if err != nil {
		return 0, fmt.Errorf("xpending: %w", err)
	}
	return info.Count, nil
}

// decode parses entries into messages. Entries that are not like events are
// acked on the spot; redelivering them could never succeed.
func (c *RedisConsumer) decode(ctx context.Context, entries []redis.XMessage) []Message {
	messages := make([]Message, 0, len(entries))
	var malformed []string

	for _, entry := range entries {
		event, err := ParseLikeEvent(entry.Values)
		if err != nil {
			log.Printf("[Consumer] Dropping malformed entry %s: %v", entry.ID, err)
			malformed = append(malformed, entry.ID)
			continue
		}
		messages = append(messages, Message{ID: entry.ID, Event: event})
	}

	if err := c.Ack(ctx, malformed...); err != nil {
		log.Printf("[Consumer] Ack of malformed entries failed: %v", err)
	}
	return messages
}
