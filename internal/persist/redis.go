package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// cmdable is the subset of the go-redis client used by RedisKV.
type cmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	URL      string
	Addr     string
	Password string
	DB       int
}

// RedisKV stores values as plain Redis strings without expiry.
type RedisKV struct {
	store cmdable
	raw   *redis.Client
}

// NewRedisKV connects to Redis and verifies connectivity.
func NewRedisKV(ctx context.Context, opts RedisOptions) (*RedisKV, error) {
	redisOpts, err := redisOptions(opts)
	if err != nil {
		return nil, err
	}

	raw := redis.NewClient(redisOpts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisKV{store: raw, raw: raw}, nil
}

func redisOptions(opts RedisOptions) (*redis.Options, error) {
	if opts.URL == "" && opts.Addr == "" {
		return nil, errors.New("redis url or address is required")
	}

	if opts.URL != "" {
		parsed, err := redis.ParseURL(opts.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		if parsed.DB == 0 {
			parsed.DB = opts.DB
		}
		return parsed, nil
	}

	return &redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}, nil
}

// Get returns the value stored at key.
func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	value, err := r.store.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

// Set stores value at key.
func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	if err := r.store.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (r *RedisKV) Delete(ctx context.Context, key string) error {
	if err := r.store.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis connection pool.
func (r *RedisKV) Close() error {
	if r.raw == nil {
		return nil
	}
	return r.raw.Close()
}
