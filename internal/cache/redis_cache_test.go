package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/wasycim/cargo-notify/internal/model"
)

func TestRedisCache_StoreReceipt_Success(t *testing.T) {
	t.Parallel()

	// Start in-memory Redis
	mr := miniredis.RunT(t)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	ttl := 10 * time.Second
	cache := NewRedisCache(rdb, ttl)

	ctx := context.Background()
	messageID := int64(42)
	at := time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC)

	if err := cache.StoreReceipt(ctx, messageID, model.Sent, at); err != nil {
		t.Fatalf("StoreReceipt() error: %v", err)
	}

	key := "receipt:42"

	if !mr.Exists(key) {
		t.Fatalf("expected key %q to exist", key)
	}

	ttlRemaining := mr.TTL(key)
	if ttlRemaining <= 0 {
		t.Fatalf("expected TTL to be set, got %v", ttlRemaining)
	}

	raw, err := mr.Get(key)
	if err != nil {
		t.Fatalf("failed to get key %q: %v", key, err)
	}

	var got receiptValue
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		t.Fatalf("failed to unmarshal value: %v", err)
	}

	if got.Status != string(model.Sent) {
		t.Fatalf("expected status %q, got %q", model.Sent, got.Status)
	}
	if !got.At.Equal(at) {
		t.Fatalf("expected At %v, got %v", at, got.At)
	}
}

func TestRedisCache_StoreReceipt_OverwritesExistingValue(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cache := NewRedisCache(rdb, time.Minute)
	ctx := context.Background()

	messageID := int64(1)

	// First write
	if err := cache.StoreReceipt(ctx, messageID, model.Failed, time.Now()); err != nil {
		t.Fatalf("first StoreReceipt() error: %v", err)
	}

	// Second write should overwrite
	if err := cache.StoreReceipt(ctx, messageID, model.Sent, time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("second StoreReceipt() error: %v", err)
	}

	raw, err := mr.Get("receipt:1")
	if err != nil {
		t.Fatalf("failed to get key receipt:1: %v", err)
	}

	var got receiptValue
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		t.Fatalf("failed to unmarshal value: %v", err)
	}

	if got.Status != string(model.Sent) {
		t.Fatalf("expected overwritten status %q, got %q", model.Sent, got.Status)
	}
}

func TestRedisCache_StoreReceipt_ContextCanceled(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cache := NewRedisCache(rdb, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := cache.StoreReceipt(ctx, 1, model.Sent, time.Now())
	if err == nil {
		t.Fatalf("expected error due to canceled context, got nil")
	}
}
