package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"payment-gateway/internal/core/domain"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const idempotencyPrefix = "idempotency:"

// IdempotencyCache is the fast path of the idempotent-replay check. It
// holds the exact response bytes served for a (merchant, key) pair so a
// replayed request can be answered without touching Postgres. Entries
// expire with the key's validity window; the durable record in Postgres
// remains the source of truth.
type IdempotencyCache struct {
	client *goredis.Client
}

// NewIdempotencyCache creates a Redis-backed idempotent response cache.
func NewIdempotencyCache(client *goredis.Client) *IdempotencyCache {
	return &IdempotencyCache{client: client}
}

// Get returns the response bytes cached for the merchant's key, or nil
// when no live entry exists.
func (c *IdempotencyCache) Get(ctx context.Context, merchantID uuid.UUID, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.cacheKey(merchantID, key)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis idempotency get: %w", err)
	}
	return val, nil
}

// Set caches response bytes for the merchant's key. ttl is the remaining
// validity of the underlying record, so refills never outlive it.
func (c *IdempotencyCache) Set(ctx context.Context, merchantID uuid.UUID, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.cacheKey(merchantID, key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis idempotency set: %w", err)
	}
	return nil
}

// cacheKey scopes a caller-supplied key to its merchant. Two merchants
// sending the same Idempotency-Key value never collide.
func (c *IdempotencyCache) cacheKey(merchantID uuid.UUID, key string) string {
	return idempotencyPrefix + domain.BuildIdempotencyKey(merchantID, key)
}
