package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrKeyNotFound = errors.New("key not found")

// KV is an opaque string store for client session data such as the bearer
// token and the cached user profile.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// RedisKV stores keys under Prefix. A zero TTL keeps values until deleted.
type RedisKV struct {
	rdb    *redis.Client
	Prefix string
	TTL    time.Duration
}

func NewRedisKV(rdb *redis.Client, prefix string) *RedisKV {
	return &RedisKV{rdb: rdb, Prefix: prefix}
}

func (k *RedisKV) Get(ctx context.Context, key string) (string, error) {
	v, err := k.rdb.Get(ctx, k.Prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}
	return v, err
}

func (k *RedisKV) Set(ctx context.Context, key, value string) error {
	return k.rdb.Set(ctx, k.Prefix+key, value, k.TTL).Err()
}

func (k *RedisKV) Delete(ctx context.Context, key string) error {
	return k.rdb.Del(ctx, k.Prefix+key).Err()
}
