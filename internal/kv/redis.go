package kv

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store against a Redis/Redis-compatible backend. It
// is the production keyspace backend for cred/, idx/, rate/, session/,
// cache/market/, and ai/enh/ per the shared-resources partitioning.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing *redis.Client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// Incr uses INCRBY for the atomic increment, and sets an expiry only when
// the counter did not already have one (Redis leaves TTL untouched across
// repeated INCRBY calls on an existing key, matching the fixed-window
// semantics: TTL is established once per bucket, at first write).
func (r *RedisStore) Incr(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	pipe := r.client.TxPipeline()
	incr := pipe.IncrBy(ctx, key, delta)
	ttlCmd := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	newVal := incr.Val()
	if ttl > 0 && ttlCmd.Val() < 0 {
		// No TTL was set yet (new key, or a key created without one) -
		// establish it now so the bucket expires at window end.
		if err := r.client.Expire(ctx, key, ttl).Err(); err != nil {
			return newVal, err
		}
	}
	return newVal, nil
}

func (r *RedisStore) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, key, value, ttl).Result()
}

// Keys enumerates keys by prefix via SCAN (cursor-based, non-blocking),
// satisfying session.Scanner.
func (r *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		batch, next, err := r.client.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}
