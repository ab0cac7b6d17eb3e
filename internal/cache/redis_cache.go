package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wasycim/cargo-notify/internal/model"
)

// RedisCache keeps recent delivery receipts so the dashboard's activity view
// can read them without hitting the queue table.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

type receiptValue struct {
	Status string    `json:"status"`
	At     time.Time `json:"at"`
}

func (c *RedisCache) StoreReceipt(ctx context.Context, messageID int64, status model.Status, at time.Time) error {
	key := fmt.Sprintf("receipt:%d", messageID)
	val := receiptValue{
		Status: string(status),
		At:     at.UTC(),
	}

	b, err := json.Marshal(val)
	if err != nil {
		return err
	}

	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}
