package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache provides typed JSON storage under a key prefix
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

// Key returns the fully-qualified key for a logical key
func (c *Cache) Key(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// Enabled returns whether the backing client is enabled
func (c *Cache) Enabled() bool {
	return c.client != nil && c.client.Enabled()
}

// Get retrieves a cached value
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		// Key not found is not an error
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get failed: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return true, nil
}

// Set stores a value in cache with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	return c.client.Redis().Set(ctx, c.Key(key), data, ttl).Err()
}

// Delete removes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.Enabled() {
		return nil
	}

	return c.client.Redis().Del(ctx, c.Key(key)).Err()
}

// GetMany fetches keys with one MGET and calls decode for every hit.
// Missing keys are skipped.
func (c *Cache) GetMany(ctx context.Context, keys []string, decode func(key string, data []byte) error) error {
	if !c.Enabled() || len(keys) == 0 {
		return nil
	}

	fullKeys := make([]string, len(keys))
	for i, k := range keys {
		fullKeys[i] = c.Key(k)
	}

	values, err := c.client.Redis().MGet(ctx, fullKeys...).Result()
	if err != nil {
		return fmt.Errorf("cache mget failed: %w", err)
	}

	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue // nil = miss
		}
		if err := decode(keys[i], []byte(s)); err != nil {
			return fmt.Errorf("cache decode %s: %w", keys[i], err)
		}
	}
	return nil
}

// SetMany stores values in one pipeline round-trip
func (c *Cache) SetMany(ctx context.Context, values map[string]interface{}, ttl time.Duration) error {
	if !c.Enabled() || len(values) == 0 {
		return nil
	}

	pipe := c.client.Redis().Pipeline()
	for key, value := range values {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("cache marshal failed: %w", err)
		}
		pipe.Set(ctx, c.Key(key), data, ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache pipeline failed: %w", err)
	}
	return nil
}

// Predefined TTLs
const (
	TTLDaily  = 24 * time.Hour     // 일별 데이터
	TTLWeekly = 7 * 24 * time.Hour // 직전 평가 이력
)

// HistoryKey is the key of an instrument's last evaluation
func HistoryKey(instrument string) string {
	return fmt.Sprintf("history:%s", instrument)
}
