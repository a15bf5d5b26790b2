package service

import (
	"context"
	"encoding/json"

	"github.com/bjh-developer/restrip/config"
	"github.com/bjh-developer/restrip/model"
	"github.com/die-net/lrucache"
	"github.com/pkg/errors"
)

// MemoryCache 进程内 LRU 缓存，按字节数淘汰
type MemoryCache struct {
	lru *lrucache.LruCache
}

func NewMemoryCache(cfg *config.CacheConfig) *MemoryCache {
	return &MemoryCache{
		lru: lrucache.New(cfg.MaxBytes, int64(cfg.TTL.Seconds())),
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*model.PhotostripResult, error) {
	data, ok := c.lru.Get(key)
	if !ok {
		return nil, nil
	}

	var result model.PhotostripResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.lru.Delete(key)
		return nil, errors.Wrap(err, "json.Unmarshal")
	}
	return &result, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, result *model.PhotostripResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return errors.Wrap(err, "json.Marshal")
	}
	c.lru.Set(key, data)
	return nil
}

// Size 当前占用字节数
func (c *MemoryCache) Size() int64 {
	return c.lru.Size()
}
