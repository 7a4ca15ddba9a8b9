// Package heat counts metric profile views
package heat

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Counter stores per-metric view counts
type Counter interface {
	// Incr adds one view and returns the new count
	Incr(ctx context.Context, slug string) (int64, error)
	// Get returns the count, zero when the metric was never viewed
	Get(ctx context.Context, slug string) (int64, error)
	// Delete drops the count of a single metric
	Delete(ctx context.Context, slug string) error
	// Rename moves the count of from to to, replacing any count under to
	Rename(ctx context.Context, from, to string) error
	// Reset drops every count
	Reset(ctx context.Context) error
}

// RedisCounter keeps counts in Redis under <prefix>:heat:<slug>
type RedisCounter struct {
	redisClient *redis.Client
	keyPrefix   string
}

// NewRedisCounter creates a counter. prefix is the deployment wide key
// prefix, e.g. "datasage".
func NewRedisCounter(redisClient *redis.Client, prefix string) *RedisCounter {
	keyPrefix := "heat:"
	if prefix != "" {
		keyPrefix = prefix + ":heat:"
	}

	return &RedisCounter{
		redisClient: redisClient,
		keyPrefix:   keyPrefix,
	}
}

// Key returns the Redis key holding the count of slug
func (c *RedisCounter) Key(slug string) string {
	return c.keyPrefix + slug
}

// Incr adds one view
func (c *RedisCounter) Incr(ctx context.Context, slug string) (int64, error) {
	n, err := c.redisClient.Incr(ctx, c.Key(slug)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment heat for %s: %w", slug, err)
	}

	return n, nil
}

// Get returns the current count
func (c *RedisCounter) Get(ctx context.Context, slug string) (int64, error) {
	n, err := c.redisClient.Get(ctx, c.Key(slug)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}

		return 0, fmt.Errorf("failed to read heat for %s: %w", slug, err)
	}

	return n, nil
}

// Delete removes the count of slug
func (c *RedisCounter) Delete(ctx context.Context, slug string) error {
	return c.redisClient.Del(ctx, c.Key(slug)).Err()
}

// Rename moves the count of from to to. When from was never viewed the
// count under to is dropped.
func (c *RedisCounter) Rename(ctx context.Context, from, to string) error {
	if from == to {
		return nil
	}

	n, err := c.redisClient.Exists(ctx, c.Key(from)).Result()
	if err != nil {
		return fmt.Errorf("failed to check heat for %s: %w", from, err)
	}

	if n == 0 {
		return c.Delete(ctx, to)
	}

	if err := c.redisClient.Rename(ctx, c.Key(from), c.Key(to)).Err(); err != nil {
		return fmt.Errorf("failed to move heat from %s to %s: %w", from, to, err)
	}

	return nil
}

// Reset removes every heat key under the prefix
func (c *RedisCounter) Reset(ctx context.Context) error {
	iter := c.redisClient.Scan(ctx, 0, c.keyPrefix+"*", 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan heat keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	return c.redisClient.Del(ctx, keys...).Err()
}

// MemoryCounter keeps counts in process memory
type MemoryCounter struct {
	mu     sync.Mutex
	counts map[string]int64
}

// NewMemoryCounter creates an empty in-memory counter
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{counts: make(map[string]int64)}
}

// Incr adds one view
func (c *MemoryCounter) Incr(_ context.Context, slug string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.counts[slug]++

	return c.counts[slug], nil
}

// Get returns the current count
func (c *MemoryCounter) Get(_ context.Context, slug string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.counts[slug], nil
}

// Delete removes the count of slug
func (c *MemoryCounter) Delete(_ context.Context, slug string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.counts, slug)

	return nil
}

// Rename moves the count of from to to
func (c *MemoryCounter) Rename(_ context.Context, from, to string) error {
	if from == to {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.counts[from]
	delete(c.counts, from)
	delete(c.counts, to)

	if ok {
		c.counts[to] = n
	}

	return nil
}

// Reset removes every count
func (c *MemoryCounter) Reset(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.counts = make(map[string]int64)

	return nil
}

// Ensure implementations satisfy Counter
var (
	_ Counter = (*RedisCounter)(nil)
	_ Counter = (*MemoryCounter)(nil)
)
