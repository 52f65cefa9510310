// Package pagecache keeps rendered API responses until the archive changes.
package pagecache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores rendered pages by key.
type Cache interface {
	// Get returns the page at key; a miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, page []byte) error
	// Invalidate drops every page.
	Invalidate(ctx context.Context) error
}

// KeyPrefix namespaces page keys in a shared redis.
const KeyPrefix = "dailyqt:page:"

// scanBatch is the COUNT hint for SCAN and the DEL batch size.
const scanBatch = 100

// Redis is a Cache on redis with a fixed ttl per page.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a redis page cache
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// Get retrieves a cached page
func (c *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	page, err := c.client.Get(ctx, KeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get cached page: %w", err)
	}
	return page, true, nil
}

// Set stores a page
func (c *Redis) Set(ctx context.Context, key string, page []byte) error {
	if err := c.client.Set(ctx, KeyPrefix+key, page, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache page: %w", err)
	}
	return nil
}

// Invalidate removes every cached page
func (c *Redis) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, KeyPrefix+"*", scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("failed to delete cached pages: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cached pages: %w", err)
	}
	if len(batch) > 0 {
		if err := c.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("failed to delete cached pages: %w", err)
		}
	}
	return nil
}

// Noop caches nothing.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Noop) Set(context.Context, string, []byte) error         { return nil }
func (Noop) Invalidate(context.Context) error                  { return nil }
