package internal

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKV stores each key as a Redis string under a common prefix
type RedisKV struct {
	client *redis.Client
	prefix string
}

// NewRedisKV connects and pings the configured Redis server
func NewRedisKV(ctx context.Context, cfg RedisConfig) (*RedisKV, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, &StorageError{Backend: "redis", Op: "open", Key: cfg.Addr, Err: fmt.Errorf("redis ping failed: %w", err)}
	}

	return NewRedisKVWithClient(client, cfg.Prefix), nil
}

// NewRedisKVWithClient wraps an existing client
func NewRedisKVWithClient(client *redis.Client, prefix string) *RedisKV {
	return &RedisKV{client: client, prefix: prefix}
}

func (r *RedisKV) redisKey(key string) string {
	return r.prefix + key
}

// Get reads a value
func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, r.redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &StorageError{Backend: "redis", Op: "get", Key: key, Err: err}
	}
	return value, true, nil
}

// Set writes a value with no expiry
func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.redisKey(key), value, 0).Err(); err != nil {
		return &StorageError{Backend: "redis", Op: "set", Key: key, Err: err}
	}
	return nil
}

// Keys lists the keys under the prefix, with the prefix stripped
func (r *RedisKV) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), r.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, &StorageError{Backend: "redis", Op: "keys", Key: r.prefix + "*", Err: err}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close closes the client
func (r *RedisKV) Close() error {
	return r.client.Close()
}
