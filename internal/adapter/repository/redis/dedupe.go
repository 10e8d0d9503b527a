package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DedupeGuard implements usecase.DedupeGuard using Redis SETNX. It is a fast
// path in front of the database unique constraints: losing a key (eviction,
// restart) only means a duplicate travels further before being rejected.
type DedupeGuard struct {
	client *redis.Client
	prefix string
}

// NewDedupeGuard creates a new DedupeGuard.
func NewDedupeGuard(client *redis.Client) *DedupeGuard {
	return &DedupeGuard{
		client: client,
		prefix: "earnings:dedupe:",
	}
}

// Acquire claims the key for the TTL. It returns false when another delivery
// already holds it.
func (g *DedupeGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return g.client.SetNX(ctx, g.prefix+key, "1", ttl).Result()
}

// Release frees the key so a later redelivery is re-examined against storage.
// Called when processing fails after the claim.
func (g *DedupeGuard) Release(ctx context.Context, key string) error {
	return g.client.Del(ctx, g.prefix+key).Err()
}
