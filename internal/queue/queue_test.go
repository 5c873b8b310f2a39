package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hobbyhub/internal/queue"
	"hobbyhub/internal/redis/redistest"
)

func TestLikeEvent_RoundTrip(t *testing.T) {
	event := queue.NewLikeToggledEvent(10, 3, "liked", 4)

	values := event.ToMap()
	assert.Equal(t, queue.EventLikeToggled, values["type"])
	assert.Equal(t, "10", values["post_id"])

	parsed, err := queue.ParseLikeEvent(values)
	require.NoError(t, err)
	assert.Equal(t, event, parsed)

	reconcile := queue.NewLikeReconcileEvent(7)
	values = reconcile.ToMap()
	assert.NotContains(t, values, "actor_id")

	parsed, err = queue.ParseLikeEvent(values)
	require.NoError(t, err)
	assert.Equal(t, reconcile, parsed)
}

func TestParseLikeEvent_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]interface{}
	}{
		{"empty", map[string]interface{}{}},
		{"missing post id", map[string]interface{}{"type": "like_reconcile", "ts": "1"}},
		{"post id not a number", map[string]interface{}{"type": "like_reconcile", "ts": "1", "post_id": "abc"}},
		{"post id not a string", map[string]interface{}{"type": "like_reconcile", "ts": "1", "post_id": 5}},
		{"zero post id", map[string]interface{}{"type": "like_reconcile", "ts": "1", "post_id": "0"}},
		{"toggle without state", map[string]interface{}{"type": "like_toggled", "ts": "1", "post_id": "5", "actor_id": "2", "likes": "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := queue.ParseLikeEvent(tt.values)
			assert.Error(t, err)
		})
	}
}

func TestPublishConsumeAck(t *testing.T) {
	client := redistest.New(t)
	ctx := context.Background()

	publisher := queue.NewPublisher(client, queue.StreamLikes, 1000)
	consumer := queue.NewConsumer(client, queue.StreamLikes, queue.ConsumerGroupLikes)

	require.NoError(t, consumer.EnsureGroup(ctx))
	require.NoError(t, consumer.EnsureGroup(ctx), "second call is a no-op")

	_, err := publisher.Publish(ctx, queue.NewLikeToggledEvent(1, 2, "liked", 1))
	require.NoError(t, err)
	_, err = publisher.Publish(ctx, queue.NewLikeReconcileEvent(5))
	require.NoError(t, err)

	// A malformed entry is skipped and acked by the consumer.
	require.NoError(t, client.XAdd(ctx, &redis.XAddArgs{
		Stream: queue.StreamLikes,
		Values: map[string]interface{}{"type": "junk"},
	}).Err())

	messages, err := consumer.Read(ctx, "worker-1", 10, 100*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, queue.EventLikeToggled, messages[0].Event.Type)
	assert.Equal(t, int64(5), messages[1].Event.PostID)

	pending, err := consumer.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pending)

	// Unacked messages are redelivered through ReadPending.
	redelivered, err := consumer.ReadPending(ctx, "worker-1", 10)
	require.NoError(t, err)
	assert.Len(t, redelivered, 2)

	// Another consumer can take over entries left idle by a dead one.
	claimed, err := consumer.Claim(ctx, "worker-2", 0, 10)
	require.NoError(t, err)
	assert.Len(t, claimed, 2)

	mine, err := consumer.ReadPending(ctx, "worker-1", 10)
	require.NoError(t, err)
	assert.Empty(t, mine, "claimed entries leave the original owner's pending list")

	require.NoError(t, consumer.Ack(ctx, messages[0].ID, messages[1].ID))

	pending, err = consumer.Pending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}
