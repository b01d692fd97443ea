package repos

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	checkoutKeyPrefix = "checkout:"
	idempotencyKeyTTL = 24 * time.Hour
)

// RedisIdempotency remembers checkout request keys for a day.
type RedisIdempotency struct {
	client *redis.Client
}

func NewRedisIdempotency(client *redis.Client) *RedisIdempotency {
	return &RedisIdempotency{client: client}
}

// Claim records key and reports whether this call was the first to do so.
func (r *RedisIdempotency) Claim(ctx context.Context, key string) (bool, error) {
	return r.client.SetNX(ctx, checkoutKeyPrefix+key, 1, idempotencyKeyTTL).Result()
}

// Release forgets key so a failed request can be retried.
func (r *RedisIdempotency) Release(ctx context.Context, key string) error {
	return r.client.Del(ctx, checkoutKeyPrefix+key).Err()
}
