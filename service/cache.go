package service

import (
	"context"

	"github.com/bjh-developer/restrip/model"
)

// ResultCache 矫正结果缓存。未命中返回 (nil, nil)。
type ResultCache interface {
	Get(ctx context.Context, key string) (*model.PhotostripResult, error)
	Set(ctx context.Context, key string, result *model.PhotostripResult) error
}
