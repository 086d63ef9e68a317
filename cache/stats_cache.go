package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// StatsCache stores computed per-post feedback statistics
type StatsCache interface {
	Get(ctx context.Context, postID uint, dest interface{}) (bool, error)
	Set(ctx context.Context, postID uint, value interface{}) error
	Invalidate(ctx context.Context, postID uint) error
}

// NewRedisClient creates a Redis client from a redis:// URL and checks the connection
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		// Fall back to a plain address
		opts = &redis.Options{Addr: url}
	}

	opts.PoolSize = 20
	opts.MinIdleConns = 2
	opts.MaxRetries = 3

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Println("✅ Successfully connected to Redis")
	return client, nil
}

type RedisStatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStatsCache(client *redis.Client, ttl time.Duration) *RedisStatsCache {
	return &RedisStatsCache{client: client, ttl: ttl}
}

func statsKey(postID uint) string {
	return fmt.Sprintf("feedback:stats:%d", postID)
}

func (c *RedisStatsCache) Get(ctx context.Context, postID uint, dest interface{}) (bool, error) {
	raw, err := c.client.Get(ctx, statsKey(postID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("decode cached stats: %w", err)
	}
	return true, nil
}

func (c *RedisStatsCache) Set(ctx context.Context, postID uint, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, statsKey(postID), string(data), c.ttl).Err()
}

func (c *RedisStatsCache) Invalidate(ctx context.Context, postID uint) error {
	return c.client.Del(ctx, statsKey(postID)).Err()
}

// NoopStatsCache is used when Redis is not configured
type NoopStatsCache struct{}

func (NoopStatsCache) Get(context.Context, uint, interface{}) (bool, error) { return false, nil }
func (NoopStatsCache) Set(context.Context, uint, interface{}) error         { return nil }
func (NoopStatsCache) Invalidate(context.Context, uint) error               { return nil }
