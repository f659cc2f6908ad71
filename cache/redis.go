package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// KeyPrefix namespaces cache keys in Redis.
const KeyPrefix = "autodiscover:cache:"

// RedisBackend stores each domain under autodiscover:cache:<domain>.
// Keys carry the cache TTL so Redis drops stale entries on its own.
type RedisBackend struct {
	rdb *redis.Client
}

// RedisOptions configures a Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisBackend connects to Redis and checks the connection.
func NewRedisBackend(ctx context.Context, opts RedisOptions) (*RedisBackend, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: connect to redis %s: %w", opts.Addr, err)
	}
	return &RedisBackend{rdb: rdb}, nil
}

// NewRedisBackendFromClient wraps an existing client.
func NewRedisBackendFromClient(rdb *redis.Client) *RedisBackend {
	return &RedisBackend{rdb: rdb}
}

func (b *RedisBackend) Get(ctx context.Context, domain string) ([]byte, error) {
	data, err := b.rdb.Get(ctx, KeyPrefix+domain).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return data, err
}

func (b *RedisBackend) Put(ctx context.Context, domain string, data []byte, ttl time.Duration) error {
	return b.rdb.Set(ctx, KeyPrefix+domain, data, ttl).Err()
}

func (b *RedisBackend) Delete(ctx context.Context, domain string) error {
	return b.rdb.Del(ctx, KeyPrefix+domain).Err()
}

// Close closes the connection.
func (b *RedisBackend) Close() error {
	return b.rdb.Close()
}
