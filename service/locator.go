package service

import (
	"github.com/bjh-developer/restrip/utils"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
	"golang.org/x/sync/errgroup"
)

// Region 掩码中最大前景区域的最小外接旋转矩形
type Region struct {
	Corners Quad // 未排序
	Area    float64
	Width   float64
	Height  float64
	Angle   float64
}

// RegionLocator 负责在掩码中定位照片条区域
type RegionLocator struct {
	maskProcessor *MaskProcessor
}

func NewRegionLocator() *RegionLocator {
	return &RegionLocator{
		maskProcessor: NewMaskProcessor(),
	}
}

// Locate 找到面积最大的外轮廓并返回其最小面积旋转矩形。
// 面积相同时保留 FindContours 顺序中先出现的轮廓。
func (rl *RegionLocator) Locate(mask gocv.Mat) (Region, error) {
	if mask.Empty() {
		return Region{}, newError(KindDecode, "mask is empty")
	}
	if mask.Channels() != 1 {
		return Region{}, newError(KindDecode, "mask must be single channel, got %d", mask.Channels())
	}

	binary := rl.maskProcessor.Binarize(mask)
	defer binary.Close()

	if gocv.CountNonZero(binary) == 0 {
		return Region{}, newError(KindNoRegionFound, "no photostrip detected")
	}

	contours := gocv.FindContours(binary, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	if contours.Size() == 0 {
		return Region{}, newError(KindNoRegionFound, "no photostrip detected")
	}

	maxArea := 0.0
	maxIndex := -1
	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if maxIndex < 0 || area > maxArea {
			maxArea = area
			maxIndex = i
		}
	}

	rect := gocv.MinAreaRect2f(contours.At(maxIndex))
	if len(rect.Points) != 4 {
		return Region{}, newError(KindDegenerateGeometry, "min area rect returned %d points", len(rect.Points))
	}

	var corners Quad
	for i, p := range rect.Points {
		corners[i] = Point{X: float64(p.X), Y: float64(p.Y)}
	}

	utils.Logger.Debug("region located",
		zap.Int("contours", contours.Size()),
		zap.Float64("area", maxArea),
		zap.Float32("width", rect.Width),
		zap.Float32("height", rect.Height),
		zap.Float64("angle", rect.Angle))

	return Region{
		Corners: corners,
		Area:    maxArea,
		Width:   float64(rect.Width),
		Height:  float64(rect.Height),
		Angle:   rect.Angle,
	}, nil
}

// LocateBest 并发定位每个候选掩码，返回面积最大的区域及其下标。
// 面积相同时取下标较小者；没有前景的候选被跳过。
func (rl *RegionLocator) LocateBest(masks []gocv.Mat) (Region, int, error) {
	regions := make([]Region, len(masks))
	found := make([]bool, len(masks))

	var g errgroup.Group
	for i := range masks {
		i := i
		g.Go(func() error {
			region, err := rl.Locate(masks[i])
			if err != nil {
				if KindOf(err) == KindNoRegionFound {
					return nil
				}
				return err
			}
			regions[i] = region
			found[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Region{}, -1, err
	}

	best := -1
	for i := range regions {
		if !found[i] {
			continue
		}
		if best < 0 || regions[i].Area > regions[best].Area {
			best = i
		}
	}
	if best < 0 {
		return Region{}, -1, newError(KindNoRegionFound, "no photostrip detected in %d candidates", len(masks))
	}

	utils.Logger.Debug("best candidate selected",
		zap.Int("candidates", len(masks)),
		zap.Int("index", best),
		zap.Float64("area", regions[best].Area))

	return regions[best], best, nil
}
