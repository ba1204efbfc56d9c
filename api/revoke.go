package api

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRevoker keeps revoked token ids in Redis so logout is visible to
// every instance immediately. Entries expire together with the token they
// invalidate, so the set stays bounded.
type RedisRevoker struct {
	client *redis.Client
}

// NewRedisRevoker creates a revoker using the provided Redis client.
func NewRedisRevoker(client *redis.Client) *RedisRevoker {
	return &RedisRevoker{client: client}
}

func (r *RedisRevoker) key(tokenID string) string {
	return "revoked:" + tokenID
}

// Revoke records the token id until its natural expiry. A non-positive
// ttl still writes a short-lived entry to close the race with clients
// presenting a token at the edge of its lifetime.
func (r *RedisRevoker) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return r.client.Set(ctx, r.key(tokenID), 1, ttl).Err()
}

// Revoked reports whether the token id has been revoked.
func (r *RedisRevoker) Revoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
