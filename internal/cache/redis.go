package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SeenStore remembers which (source, externalId) keys were already ingested.
// It is a fast path only; the record store stays authoritative.
type SeenStore interface {
	IsSeen(ctx context.Context, key string) (bool, error)
	MarkSeen(ctx context.Context, key string, ttl time.Duration) error
	Clear(ctx context.Context) error
	Close() error
}

type RedisClient struct {
	client *redis.Client
	prefix string
}

var _ SeenStore = (*RedisClient)(nil)

func NewRedisClient(url, prefix string) (*RedisClient, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{
		client: client,
		prefix: prefix,
	}, nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}

func (r *RedisClient) IsSeen(ctx context.Context, key string) (bool, error) {
	exists, err := r.client.Exists(ctx, r.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists error: %w", err)
	}
	return exists > 0, nil
}

func (r *RedisClient) MarkSeen(ctx context.Context, key string, ttl time.Duration) error {
	return r.client.Set(ctx, r.prefix+key, "1", ttl).Err()
}

func (r *RedisClient) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 0).Iterator()
	var keys []string

	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("error scanning keys: %w", err)
	}

	if len(keys) > 0 {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("error deleting keys: %w", err)
		}
	}

	return nil
}

// SeenKey builds the cache key for a source-scoped identifier
func SeenKey(source, externalID string) string {
	return source + ":" + externalID
}
