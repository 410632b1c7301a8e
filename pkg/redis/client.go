package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrCacheMiss is returned by Get when the key does not exist
var ErrCacheMiss = errors.New("cache miss")

type Client struct {
	rdb        *redis.Client
	KeyBuilder *KeyBuilder
	log        *zap.Logger
}

// Cache key patterns
const (
	KeyTableStatus        = "poker:table:%d:status:v%d" // status view per table and cache generation
	KeyTableStatusVersion = "poker:table:%d:version"    // bumped on every mutation of the table
)

// TTL constants
const (
	TTLTableStatus  = 30 * time.Second
	TTLTableVersion = 24 * time.Hour
)

// NewClient creates a new Redis client and verifies the connection
func NewClient(redisURL string, environment string, log *zap.Logger) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = 20
	opts.MinIdleConns = 2
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if log == nil {
		log = zap.NewNop()
	}

	return &Client{rdb: rdb, KeyBuilder: NewKeyBuilder(environment), log: log}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

func (c *Client) observe(op, key string, start time.Time, err error, fields ...zap.Field) {
	fields = append(fields,
		zap.String("key_prefix", prefixForLog(key)),
		zap.Duration("duration", time.Since(start)))
	if err != nil && !errors.Is(err, redis.Nil) {
		c.log.Info(op, append(fields, zap.Error(err))...)
		return
	}
	c.log.Debug(op, fields...)
}

// Get retrieves a value. A missing key yields ErrCacheMiss.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	start := time.Now()
	val, err := c.rdb.Get(ctx, key).Result()
	c.observe("redis_get", key, start, err)
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return val, err
}

// GetInt64 retrieves an integer value, treating a missing key as zero
func (c *Client) GetInt64(ctx context.Context, key string) (int64, error) {
	start := time.Now()
	v, err := c.rdb.Get(ctx, key).Int64()
	c.observe("redis_get_int", key, start, err)
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Set stores a value with TTL
func (c *Client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	start := time.Now()
	err := c.rdb.Set(ctx, key, value, ttl).Err()
	c.observe("redis_set", key, start, err)
	return err
}

// Delete removes keys
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	start := time.Now()
	err := c.rdb.Del(ctx, keys...).Err()
	c.log.Debug("redis_del",
		zap.Int("keys", len(keys)),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err))
	return err
}

// IncrWithTTL increments a counter and refreshes its TTL in one round trip
func (c *Client) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	start := time.Now()
	pipe := c.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	c.observe("redis_incr", key, start, err, zap.Int64("value", incr.Val()))
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// Health checks the Redis connection
func (c *Client) Health(ctx context.Context) error {
	start := time.Now()
	err := c.rdb.Ping(ctx).Err()
	c.observe("redis_ping", "", start, err)
	return err
}

// prefixForLog returns a bounded prefix of a key for logging
func prefixForLog(key string) string {
	if len(key) <= 24 {
		return key
	}
	return key[:24] + "…"
}
