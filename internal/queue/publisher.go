package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Publisher appends like events to a stream.
type Publisher interface {
	Publish(ctx context.Context, event LikeEvent) (messageID string, err error)
}

// RedisPublisher writes to one Redis stream with XADD.
type RedisPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewPublisher returns a publisher for stream. The stream is trimmed to
// roughly maxLen entries; maxLen <= 0 keeps everything.
func NewPublisher(client *redis.Client, stream string, maxLen int64) *RedisPublisher {
	return &RedisPublisher{client: client, stream: stream, maxLen: maxLen}
}

func (p *RedisPublisher) Publish(ctx context.Context, event LikeEvent) (string, error) {
	args := &redis.XAddArgs{Stream: p.stream, Values: event.ToMap()}
	if p.maxLen > 0 {
		// MAXLEN ~ n: Redis trims whole radix nodes, so the length is approximate.
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	id, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		return "", fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return id, nil
}
