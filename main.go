package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/bjh-developer/restrip/config"
	"github.com/bjh-developer/restrip/handler"
	"github.com/bjh-developer/restrip/middleware"
	"github.com/bjh-developer/restrip/service"
	"github.com/bjh-developer/restrip/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// 加载配置
	cfg := config.New()

	// 初始化日志
	if err := utils.InitLogger(cfg.Server.Mode); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer utils.Sync()

	utils.Logger.Info("starting restrip server",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit))

	ctx := context.Background()

	cache, closeCache := newCache(ctx, cfg)
	defer closeCache()

	segmenter := newSegmenter(ctx, &cfg.Segmenter)

	photostripService := service.NewPhotostripService(&cfg.Rectify, segmenter, cache)
	photostripHandler := handler.NewPhotostripHandler(cfg, photostripService)

	// 设置Gin模式
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS())
	r.MaxMultipartMemory = cfg.Upload.MaxSize * 2

	// 健康检查和版本信息
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"version":   Version,
			"segmenter": cfg.Segmenter.Mode,
		})
	})

	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	api := r.Group("/api/v1")
	{
		api.POST("/rectify", photostripHandler.Rectify)
		api.POST("/upload", photostripHandler.Upload)
		api.GET("/photostrip/:key", photostripHandler.GetByKey)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	utils.Logger.Info("server starting", zap.String("port", cfg.Server.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		utils.Logger.Fatal("failed to start server", zap.Error(err))
	}
}

// newCache 优先使用 Redis，连接失败时退回进程内缓存
func newCache(ctx context.Context, cfg *config.Config) (service.ResultCache, func()) {
	redisCache := service.NewRedisCache(&cfg.Redis)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := redisCache.Ping(pingCtx); err != nil {
		utils.Logger.Warn("redis connection failed, using in-memory cache", zap.Error(err))
		_ = redisCache.Close()
		return service.NewMemoryCache(&cfg.Cache), func() {}
	}

	utils.Logger.Info("redis connected successfully", zap.String("addr", cfg.Redis.Addr))
	return redisCache, func() { _ = redisCache.Close() }
}

// newSegmenter 按配置选择分割方式，远程服务不可用时退回 GrabCut
func newSegmenter(ctx context.Context, cfg *config.SegmenterConfig) service.Segmenter {
	switch cfg.Mode {
	case "grabcut":
		utils.Logger.Info("using local grabcut segmenter")
		return service.NewGrabCutSegmenter(cfg)
	case "none":
		utils.Logger.Info("segmentation disabled, requests must carry a mask")
		return nil
	}

	remote := service.NewRemoteSegmenter(cfg)

	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := remote.CheckHealth(healthCtx); err != nil {
		utils.Logger.Warn("segmentation service unavailable, falling back to grabcut",
			zap.String("url", cfg.InferenceURL), zap.Error(err))
		return service.NewGrabCutSegmenter(cfg)
	}

	utils.Logger.Info("segmentation service connected", zap.String("url", cfg.InferenceURL))
	return remote
}
