package service

import (
	"context"
	"image"
	"time"

	"github.com/bjh-developer/restrip/config"
	"github.com/bjh-developer/restrip/utils"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// GrabCutSegmenter 本地分割，分割服务不可用时使用
type GrabCutSegmenter struct {
	iterations       int
	borderSize       int
	maxSide          int
	sceneAnalyzer    *SceneAnalyzer
	saliencyDetector *SaliencyDetector
	maskProcessor    *MaskProcessor
}

func NewGrabCutSegmenter(cfg *config.SegmenterConfig) *GrabCutSegmenter {
	maxSide := cfg.MaxSide
	if maxSide <= 0 {
		maxSide = 1200
	}
	return &GrabCutSegmenter{
		iterations:       max(1, cfg.Iterations),
		borderSize:       cfg.BorderSize,
		maxSide:          maxSide,
		sceneAnalyzer:    NewSceneAnalyzer(),
		saliencyDetector: NewSaliencyDetector(),
		maskProcessor:    NewMaskProcessor(),
	}
}

// Segment 返回唯一候选：最大前景连通区域
func (s *GrabCutSegmenter) Segment(ctx context.Context, img gocv.Mat) ([]gocv.Mat, error) {
	if err := validateImage(img); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	startTime := time.Now()
	width := img.Cols()
	height := img.Rows()

	bgr := img
	if img.Channels() == 4 {
		bgr = gocv.NewMat()
		defer bgr.Close()
		gocv.CvtColor(img, &bgr, gocv.ColorBGRAToBGR)
	}

	scaledImg, scale := s.smartResize(bgr)
	defer scaledImg.Close()

	scaledWidth := scaledImg.Cols()
	scaledHeight := scaledImg.Rows()

	scene := s.sceneAnalyzer.Analyze(scaledImg)
	iterations := scene.Iterations(s.iterations)

	saliencyMap := s.saliencyDetector.Detect(scaledImg)
	defer saliencyMap.Close()

	mask := s.saliencyDetector.CreateMask(saliencyMap, s.border(scaledWidth, scaledHeight))
	defer mask.Close()

	bgdModel := gocv.NewMat()
	defer bgdModel.Close()
	fgdModel := gocv.NewMat()
	defer fgdModel.Close()

	if gocv.CountNonZero(saliencyMap) == 0 {
		initRect := s.saliencyDetector.ExtractRect(saliencyMap, scaledWidth, scaledHeight)
		gocv.GrabCut(scaledImg, &mask, initRect, &bgdModel, &fgdModel, iterations, gocv.GCInitWithRect)
	} else {
		gocv.GrabCut(scaledImg, &mask, image.Rectangle{}, &bgdModel, &fgdModel, iterations, gocv.GCInitWithMask)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fgMask := s.maskProcessor.ExtractForeground(mask)
	optimized := s.maskProcessor.MorphologyOptimize(fgMask, scene.KernelSize())
	fgMask.Close()
	fgMask = optimized

	// 还原到原始尺寸
	if scale != 1.0 {
		resizedMask := gocv.NewMat()
		gocv.Resize(fgMask, &resizedMask, image.Point{X: width, Y: height}, 0, 0, gocv.InterpolationLinear)
		gocv.Threshold(resizedMask, &resizedMask, 127, 255, gocv.ThresholdBinary)
		fgMask.Close()
		fgMask = resizedMask
	}

	largest := s.maskProcessor.KeepLargest(fgMask)
	fgMask.Close()

	utils.Logger.Debug("grabcut segmentation finished",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Float64("scale", scale),
		zap.String("scene", string(scene.Level)),
		zap.Int("iterations", iterations),
		zap.Int("foreground", gocv.CountNonZero(largest)),
		zap.Duration("duration", time.Since(startTime)))

	return []gocv.Mat{largest}, nil
}

// border 确定背景边框宽度，未配置时取短边的 3%
func (s *GrabCutSegmenter) border(width, height int) int {
	b := s.borderSize
	if b <= 0 {
		b = int(float64(min(width, height)) * 0.03)
	}
	return max(1, min(b, min(width, height)/4))
}

// smartResize 缩放到最长边不超过 maxSide
func (s *GrabCutSegmenter) smartResize(img gocv.Mat) (gocv.Mat, float64) {
	width := img.Cols()
	height := img.Rows()
	maxDim := max(width, height)
	if maxDim <= s.maxSide {
		return img.Clone(), 1.0
	}

	scale := float64(s.maxSide) / float64(maxDim)
	newWidth := max(1, int(float64(width)*scale))
	newHeight := max(1, int(float64(height)*scale))

	resized := gocv.NewMat()
	gocv.Resize(img, &resized, image.Point{X: newWidth, Y: newHeight}, 0, 0, gocv.InterpolationArea)

	return resized, scale
}
