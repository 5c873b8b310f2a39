package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// RevokedTokenPrefix is the key prefix for revoked access token IDs
	RevokedTokenPrefix = "auth:revoked:"
)

// RevokedTokens records logged-out access tokens by jti.
// Each key expires when the token itself would have, so the set never grows unbounded.
type RevokedTokens struct {
	client *redis.Client
}

// NewRevokedTokens creates a revocation store backed by Redis.
func NewRevokedTokens(client *redis.Client) *RevokedTokens {
	return &RevokedTokens{client: client}
}

func revokedKey(jti string) string {
	return RevokedTokenPrefix + jti
}

// Revoke marks jti as revoked for ttl.
func (c *RevokedTokens) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return fmt.Errorf("revoke: empty token id")
	}

	if err := c.client.Set(ctx, revokedKey(jti), 1, ttl).Err(); err != nil {
		log.Printf("[RevokedTokens] Revoke FAILED: jti=%s err=%v", jti, err)
		return fmt.Errorf("revoke token: %w", err)
	}

	log.Printf("[RevokedTokens] Revoke OK: jti=%s ttl=%v", jti, ttl)
	return nil
}

// IsRevoked reports whether jti has been revoked and not yet expired.
func (c *RevokedTokens) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := c.client.Exists(ctx, revokedKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return n > 0, nil
}
