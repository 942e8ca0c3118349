// Package cache provides Redis-backed caching for daily quota counts.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache provides caching functionality using Redis
type Cache struct {
	client *redis.Client
}

// NewCache creates a new cache instance
func NewCache(host string, port int, password string, db int) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

func quotaKey(userID, day string) string {
	return fmt.Sprintf("quota:%s:%s", userID, day)
}

// GetQuotaCount retrieves a user's generation count for the given day.
// The second return value reports whether the key was present.
func (c *Cache) GetQuotaCount(ctx context.Context, userID, day string) (int, bool, error) {
	count, err := c.client.Get(ctx, quotaKey(userID, day)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil // Cache miss
		}
		return 0, false, fmt.Errorf("failed to get quota count from cache: %w", err)
	}
	return count, true, nil
}

// SetQuotaCount caches a user's generation count for the given day. The
// TTL should not outlive the day boundary the count belongs to.
func (c *Cache) SetQuotaCount(ctx context.Context, userID, day string, count int, ttl time.Duration) error {
	if err := c.client.Set(ctx, quotaKey(userID, day), count, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set quota count in cache: %w", err)
	}
	return nil
}

// InvalidateQuotaCount removes a user's cached count for the given day.
func (c *Cache) InvalidateQuotaCount(ctx context.Context, userID, day string) error {
	if err := c.client.Del(ctx, quotaKey(userID, day)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate quota count: %w", err)
	}
	return nil
}

// Health check
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
