package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// ReconcileThrottlePrefix is the key prefix for per-post reconcile throttles
	ReconcileThrottlePrefix = "likes:reconcile:"

	// DefaultReconcileWindow is how long a post stays throttled after a recount
	DefaultReconcileWindow = 30 * time.Second
)

// ReconcileThrottle lets at most one worker recount a given post per window.
// A burst of toggles on a hot post then costs one COUNT(*) instead of one per toggle.
type ReconcileThrottle struct {
	client *redis.Client
	window time.Duration
}

// NewReconcileThrottle creates a throttle; window <= 0 uses DefaultReconcileWindow.
func NewReconcileThrottle(client *redis.Client, window time.Duration) *ReconcileThrottle {
	if window <= 0 {
		window = DefaultReconcileWindow
	}
	return &ReconcileThrottle{client: client, window: window}
}

// Acquire returns true if the caller may reconcile postID now.
func (t *ReconcileThrottle) Acquire(ctx context.Context, postID int64) (bool, error) {
	key := ReconcileThrottlePrefix + strconv.FormatInt(postID, 10)

	ok, err := t.client.SetNX(ctx, key, 1, t.window).Result()
	if err != nil {
		return false, fmt.Errorf("acquire reconcile throttle: %w", err)
	}
	return ok, nil
}
