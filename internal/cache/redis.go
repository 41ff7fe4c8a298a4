package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore is a Store over a shared Redis instance. Tag membership lives in
// Redis sets so invalidation reaches views cached by other processes. Redis
// failures degrade to cache misses and are only logged.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisStore returns a RedisStore over the given client.
func NewRedisStore(client *redis.Client, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{client: client, logger: logger}
}

func (store *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := store.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			store.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return value, true
}

func (store *RedisStore) Set(ctx context.Context, key string, value []byte, tags []string, ttl time.Duration) {
	pipeline := store.client.Pipeline()
	pipeline.Set(ctx, key, value, ttl)
	for _, tag := range tags {
		set := tagSetKey(tag)
		pipeline.SAdd(ctx, set, key)
		pipeline.Expire(ctx, set, 2*ttl)
	}
	if _, err := pipeline.Exec(ctx); err != nil {
		store.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (store *RedisStore) Invalidate(ctx context.Context, tags []string) {
	for _, tag := range tags {
		set := tagSetKey(tag)
		members, err := store.client.SMembers(ctx, set).Result()
		if err != nil {
			store.logger.Warn("cache tag lookup failed", zap.String("tag", tag), zap.Error(err))
			continue
		}
		if len(members) > 0 {
			if err := store.client.Del(ctx, members...).Err(); err != nil {
				store.logger.Warn("cache invalidation failed", zap.String("tag", tag), zap.Error(err))
			}
		}
		if err := store.client.Del(ctx, set).Err(); err != nil {
			store.logger.Warn("cache tag cleanup failed", zap.String("tag", tag), zap.Error(err))
		}
	}
}

func tagSetKey(tag string) string {
	return keyPrefix + ":tag:" + tag
}
