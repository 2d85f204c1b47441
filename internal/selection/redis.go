package selection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores each record as a string value under
// "selection:visitor:<key>". A positive ttl expires idle selections.
type RedisBackend struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisBackend wraps an existing client.
func NewRedisBackend(client *redis.Client, ttl time.Duration) *RedisBackend {
	return &RedisBackend{client: client, ttl: ttl}
}

// NewRedisClient parses url and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func (r *RedisBackend) redisKey(key string) string {
	return "selection:visitor:" + key
}

func (r *RedisBackend) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load selection: %w", err)
	}
	return data, nil
}

func (r *RedisBackend) Save(ctx context.Context, key string, data []byte) error {
	if err := r.client.Set(ctx, r.redisKey(key), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save selection: %w", err)
	}
	return nil
}
