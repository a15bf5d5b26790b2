package service

import (
	"context"
	"time"

	"github.com/bjh-developer/restrip/config"
	"github.com/bjh-developer/restrip/model"
	"github.com/bjh-developer/restrip/utils"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// ProcessRequest 原始图片字节与可选掩码字节
type ProcessRequest struct {
	Image []byte
	Mask  []byte
}

// PhotostripService 负责请求级处理：限流、缓存、分割、矫正
type PhotostripService struct {
	pipeline     *Pipeline
	segmenter    Segmenter
	cache        ResultCache
	semaphore    chan struct{}
	queueTimeout time.Duration
	frameCount   int
}

// NewPhotostripService segmenter 可为 nil，此时请求必须携带掩码
func NewPhotostripService(cfg *config.RectifyConfig, segmenter Segmenter, cache ResultCache) *PhotostripService {
	return &PhotostripService{
		pipeline:     NewPipeline(cfg),
		segmenter:    segmenter,
		cache:        cache,
		semaphore:    make(chan struct{}, max(1, cfg.MaxConcurrent)),
		queueTimeout: time.Duration(cfg.QueueTimeout) * time.Second,
		frameCount:   cfg.FrameCount,
	}
}

// Process 矫正一张照片条图片，结果按图片与掩码内容缓存
func (s *PhotostripService) Process(ctx context.Context, req ProcessRequest) (*model.PhotostripResult, error) {
	key := utils.CacheKey(req.Image, req.Mask)

	if cached := s.lookup(ctx, key); cached != nil {
		utils.Logger.Info("cache hit", zap.String("key", key))
		return cached, nil
	}

	// 并发控制
	queueCtx, cancel := context.WithTimeout(ctx, s.queueTimeout)
	defer cancel()

	select {
	case s.semaphore <- struct{}{}:
		defer func() { <-s.semaphore }()
	case <-queueCtx.Done():
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, ErrQueueFull
	}

	startTime := time.Now()

	img, err := DecodeImage(req.Image)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	utils.Logger.Info("processing photostrip",
		zap.String("key", key),
		zap.Int("width", img.Cols()),
		zap.Int("height", img.Rows()),
		zap.Bool("mask_supplied", len(req.Mask) > 0))

	out, err := s.rectify(ctx, img, req.Mask)
	if err != nil {
		utils.Logger.Warn("rectification failed",
			zap.String("key", key),
			zap.String("kind", string(KindOf(err))),
			zap.Error(err))
		return nil, err
	}
	defer out.Close()

	data, err := EncodePNG(out)
	if err != nil {
		return nil, err
	}

	fingerprint, err := Fingerprint(out)
	if err != nil {
		utils.Logger.Warn("failed to fingerprint photostrip", zap.String("key", key), zap.Error(err))
	}

	result := &model.PhotostripResult{
		Key:         key,
		Width:       out.Cols(),
		Height:      out.Rows(),
		Photostrip:  data,
		Frames:      SplitFrames(out.Cols(), out.Rows(), s.frameCount),
		Fingerprint: fingerprint,
		Timestamp:   time.Now().Unix(),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result); err != nil {
			utils.Logger.Warn("failed to set cache", zap.String("key", key), zap.Error(err))
		}
	}

	utils.Logger.Info("photostrip rectified",
		zap.String("key", key),
		zap.Int("width", result.Width),
		zap.Int("height", result.Height),
		zap.String("fingerprint", fingerprint),
		zap.Duration("duration", time.Since(startTime)))

	return result, nil
}

// Lookup 只查缓存，未命中返回 nil
func (s *PhotostripService) Lookup(ctx context.Context, key string) (*model.PhotostripResult, error) {
	if s.cache == nil {
		return nil, nil
	}
	return s.cache.Get(ctx, key)
}

func (s *PhotostripService) lookup(ctx context.Context, key string) *model.PhotostripResult {
	cached, err := s.Lookup(ctx, key)
	if err != nil {
		utils.Logger.Warn("failed to get cache", zap.String("key", key), zap.Error(err))
		return nil
	}
	return cached
}

func (s *PhotostripService) rectify(ctx context.Context, img gocv.Mat, maskData []byte) (gocv.Mat, error) {
	if len(maskData) > 0 {
		mask, err := DecodeMask(maskData)
		if err != nil {
			return gocv.NewMat(), err
		}
		defer mask.Close()
		return s.pipeline.Rectify(img, mask)
	}

	if s.segmenter == nil {
		return gocv.NewMat(), newError(KindDecode, "mask is required when no segmenter is configured")
	}

	masks, err := s.segmenter.Segment(ctx, img)
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "segment")
	}
	defer closeAll(masks)

	return s.pipeline.RectifyBest(img, masks)
}
