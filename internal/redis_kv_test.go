package internal

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
)

// redisTestAddr returns a Redis server to test against, skipping when none is configured
func redisTestAddr(t *testing.T) string {
	t.Helper()
	addr := os.Getenv("AGRICHAT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("AGRICHAT_TEST_REDIS_ADDR not set")
	}
	return addr
}

func TestRedisKV(t *testing.T) {
	addr := redisTestAddr(t)
	ctx := context.Background()

	kv, err := NewRedisKV(ctx, RedisConfig{Addr: addr, Prefix: "agrichat-test:"})
	if err != nil {
		t.Fatalf("NewRedisKV() error = %v", err)
	}
	defer kv.Close()
	defer kv.client.Del(ctx, kv.redisKey(StorageKey))

	if _, ok, err := kv.Get(ctx, StorageKey); err != nil || ok {
		t.Fatalf("Get() on empty key = %v, %v", ok, err)
	}
	if err := kv.Set(ctx, StorageKey, "[]"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if value, ok, err := kv.Get(ctx, StorageKey); err != nil || !ok || value != "[]" {
		t.Errorf("Get() = %q, %v, %v", value, ok, err)
	}
	keys, err := kv.Keys(ctx)
	if err != nil || len(keys) != 1 || keys[0] != StorageKey {
		t.Errorf("Keys() = %v, %v", keys, err)
	}
}

func TestRedisKV_Store(t *testing.T) {
	addr := redisTestAddr(t)
	ctx := context.Background()

	kv, err := NewRedisKV(ctx, RedisConfig{Addr: addr, Prefix: "agrichat-store-test:"})
	if err != nil {
		t.Fatalf("NewRedisKV() error = %v", err)
	}
	defer kv.Close()
	defer kv.client.Del(ctx, kv.redisKey(StorageKey))

	store := NewStore(kv, echoResponder())
	defer store.Close()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	p, _ := store.SubmitMessage(ctx, "Bonjour")
	waitReply(t, p)

	sessions, err := store.LoadAll(ctx)
	if err != nil || len(sessions) != 1 {
		t.Errorf("LoadAll() = %d sessions, %v", len(sessions), err)
	}
}

func TestNewRedisKV_Unreachable(t *testing.T) {
	_, err := NewRedisKV(context.Background(), RedisConfig{Addr: "127.0.0.1:1"})
	var storageErr *StorageError
	if !errors.As(err, &storageErr) || storageErr.Op != "open" {
		t.Errorf("NewRedisKV() error = %v, want StorageError on open", err)
	}
}

func TestRedisKV_ClosedClient(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	kv := NewRedisKVWithClient(client, "p:")
	kv.Close()

	_, _, err := kv.Get(context.Background(), "k")
	var storageErr *StorageError
	if !errors.As(err, &storageErr) || storageErr.Backend != "redis" {
		t.Errorf("Get() on closed client error = %v, want StorageError", err)
	}
}
