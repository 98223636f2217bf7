package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shareit/internal/config"

	"github.com/redis/go-redis/v9"
)

var errNilClient = errors.New("redis client is nil")

// NewRedisClient builds a client from the redis config section.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// RedisQuotaStore counts requests per key in fixed windows shared by all instances.
type RedisQuotaStore struct {
	client *redis.Client
	prefix string
}

func NewRedisQuotaStore(client *redis.Client, prefix string) *RedisQuotaStore {
	if prefix == "" {
		prefix = "shareit:quota"
	}
	return &RedisQuotaStore{
		client: client,
		prefix: prefix,
	}
}

func (r *RedisQuotaStore) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, errNilClient
	}
	redisKey := fmt.Sprintf("%s:%s", r.prefix, key)
	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	if count == 1 {
		if err := r.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	return count <= int64(limit), nil
}

// RedisDeadLetterQueue keeps payloads that could not be delivered in a redis list.
type RedisDeadLetterQueue struct {
	client *redis.Client
	key    string
}

func NewRedisDeadLetterQueue(client *redis.Client, key string) *RedisDeadLetterQueue {
	return &RedisDeadLetterQueue{client: client, key: key}
}

func (q *RedisDeadLetterQueue) Push(ctx context.Context, payload []byte) error {
	if q.client == nil {
		return errNilClient
	}
	if err := q.client.RPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("failed to push dead letter: %w", err)
	}
	return nil
}

// List returns up to limit entries, oldest first.
func (q *RedisDeadLetterQueue) List(ctx context.Context, limit int64) ([]string, error) {
	if q.client == nil {
		return nil, errNilClient
	}
	entries, err := q.client.LRange(ctx, q.key, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read dead letters: %w", err)
	}
	return entries, nil
}

// Ping checks the redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
