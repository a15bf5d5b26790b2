package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bjh-developer/restrip/config"
	"github.com/bjh-developer/restrip/model"
	"github.com/bjh-developer/restrip/utils"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "photostrip:"

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(cfg *config.RedisConfig) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisCache{
		client: client,
		ttl:    cfg.TTL,
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Get 读取缓存的照片条
func (c *RedisCache) Get(ctx context.Context, key string) (*model.PhotostripResult, error) {
	data, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var result model.PhotostripResult
	if err := json.Unmarshal(data, &result); err != nil {
		utils.Logger.Error("failed to unmarshal photostrip result",
			zap.String("key", key), zap.Error(err))
		return nil, err
	}

	return &result, nil
}

// Set 写入缓存，过期时间取配置的 TTL
func (c *RedisCache) Set(ctx context.Context, key string, result *model.PhotostripResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, redisKeyPrefix+key, data, c.ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
