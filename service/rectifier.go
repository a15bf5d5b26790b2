package service

import (
	"image"
	"image/color"
	"math"

	"github.com/bjh-developer/restrip/config"
	"github.com/bjh-developer/restrip/utils"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// Rectifier 将有序四边形透视变换为轴对齐矩形
type Rectifier struct {
	alphaThreshold float32
}

func NewRectifier(cfg *config.RectifyConfig) *Rectifier {
	return &Rectifier{
		alphaThreshold: cfg.AlphaThreshold,
	}
}

// EnsureAlpha 返回 BGRA 图像。三通道输入按灰度阈值合成 0/255 的透明通道。
func (r *Rectifier) EnsureAlpha(img gocv.Mat) (gocv.Mat, error) {
	if img.Empty() {
		return gocv.NewMat(), newError(KindDecode, "image is empty")
	}

	switch img.Channels() {
	case 4:
		return img.Clone(), nil
	case 3:
	default:
		return gocv.NewMat(), newError(KindDecode, "image must have 3 or 4 channels, got %d", img.Channels())
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	alpha := gocv.NewMat()
	defer alpha.Close()
	gocv.Threshold(gray, &alpha, r.alphaThreshold, 255, gocv.ThresholdBinary)

	channels := gocv.Split(img)
	defer func() {
		for _, c := range channels {
			c.Close()
		}
	}()

	bgra := gocv.NewMat()
	gocv.Merge([]gocv.Mat{channels[0], channels[1], channels[2], alpha}, &bgra)
	return bgra, nil
}

// TargetSize 取两组对边中较长者作为输出宽高，向下取整
func (r *Rectifier) TargetSize(q Quad) (int, int, error) {
	tl, tr, br, bl := q[0], q[1], q[2], q[3]

	width := int(math.Floor(math.Max(dist(br, bl), dist(tr, tl))))
	height := int(math.Floor(math.Max(dist(tr, br), dist(tl, bl))))

	if width < 1 || height < 1 {
		return 0, 0, newError(KindDegenerateTarget, "target size %dx%d", width, height)
	}
	if q.area() < 1 {
		return 0, 0, newError(KindDegenerateTarget, "quadrilateral area %.3f", q.area())
	}
	return width, height, nil
}

// Rectify 将有序四边形区域映射到 W×H 的矩形。
// 双线性插值，源图范围之外填充全透明黑色；所有通道（包括透明通道）同一变换。
func (r *Rectifier) Rectify(img gocv.Mat, q Quad) (gocv.Mat, error) {
	width, height, err := r.TargetSize(q)
	if err != nil {
		return gocv.NewMat(), err
	}

	bgra, err := r.EnsureAlpha(img)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer bgra.Close()

	dstQuad := Quad{
		{X: 0, Y: 0},
		{X: float64(width - 1), Y: 0},
		{X: float64(width - 1), Y: float64(height - 1)},
		{X: 0, Y: float64(height - 1)},
	}

	src := gocv.NewPoint2fVectorFromPoints(q.point2f())
	defer src.Close()
	dst := gocv.NewPoint2fVectorFromPoints(dstQuad.point2f())
	defer dst.Close()

	transform := gocv.GetPerspectiveTransform2f(src, dst)
	defer transform.Close()
	if transform.Empty() {
		return gocv.NewMat(), newError(KindDegenerateTarget, "no perspective transform for %v", q)
	}

	warped := gocv.NewMat()
	gocv.WarpPerspectiveWithParams(bgra, &warped, transform, image.Pt(width, height),
		gocv.InterpolationLinear, gocv.BorderConstant, color.RGBA{})

	utils.Logger.Debug("quadrilateral rectified",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Int("channels", warped.Channels()))

	return warped, nil
}
