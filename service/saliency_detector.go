package service

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// GrabCut 掩码标签
const (
	gcBackground         = 0
	gcForeground         = 1
	gcProbableBackground = 2
	gcProbableForeground = 3
)

// SaliencyDetector 基于梯度的显著性，用于给 GrabCut 播种
type SaliencyDetector struct{}

func NewSaliencyDetector() *SaliencyDetector {
	return &SaliencyDetector{}
}

// Detect 计算二值显著性图（Sobel 梯度 + 高斯模糊 + Otsu）
func (sd *SaliencyDetector) Detect(img gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	gradX := gocv.NewMat()
	gradY := gocv.NewMat()
	defer gradX.Close()
	defer gradY.Close()

	gocv.Sobel(gray, &gradX, gocv.MatTypeCV16S, 1, 0, 3, 1, 0, gocv.BorderDefault)
	gocv.Sobel(gray, &gradY, gocv.MatTypeCV16S, 0, 1, 3, 1, 0, gocv.BorderDefault)

	absGradX := gocv.NewMat()
	absGradY := gocv.NewMat()
	defer absGradX.Close()
	defer absGradY.Close()

	gocv.ConvertScaleAbs(gradX, &absGradX, 1, 0)
	gocv.ConvertScaleAbs(gradY, &absGradY, 1, 0)

	gradient := gocv.NewMat()
	defer gradient.Close()
	gocv.AddWeighted(absGradX, 0.5, absGradY, 0.5, 0, &gradient)

	// 照片条内部纹理密集，模糊核随图像尺寸增长
	k := max(3, min(img.Cols(), img.Rows())/40) | 1
	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gradient, &blurred, image.Point{X: k, Y: k}, 0, 0, gocv.BorderDefault)

	saliency := gocv.NewMat()
	gocv.Threshold(blurred, &saliency, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)

	return saliency
}

// ExtractRect 最大显著区域的外接矩形，无显著区域时取内缩 10% 的整幅图
func (sd *SaliencyDetector) ExtractRect(saliency gocv.Mat, width, height int) image.Rectangle {
	contours := gocv.FindContours(saliency, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	if contours.Size() == 0 {
		bx := max(1, int(float64(width)*0.1))
		by := max(1, int(float64(height)*0.1))
		return image.Rect(bx, by, width-bx, height-by)
	}

	var maxRect image.Rectangle
	maxArea := -1.0
	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if area > maxArea {
			maxArea = area
			maxRect = gocv.BoundingRect(contours.At(i))
		}
	}

	padX := int(float64(maxRect.Dx()) * 0.05)
	padY := int(float64(maxRect.Dy()) * 0.05)
	maxRect.Min.X = max(0, maxRect.Min.X-padX)
	maxRect.Min.Y = max(0, maxRect.Min.Y-padY)
	maxRect.Max.X = min(width, maxRect.Max.X+padX)
	maxRect.Max.Y = min(height, maxRect.Max.Y+padY)

	return maxRect
}

// CreateMask 生成 GrabCut 初始掩码：边框为确定背景，
// 膨胀后的显著区域为可能前景，其余为可能背景
func (sd *SaliencyDetector) CreateMask(saliency gocv.Mat, border int) gocv.Mat {
	width, height := saliency.Cols(), saliency.Rows()

	mask := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(gcProbableBackground, 0, 0, 0), height, width, gocv.MatTypeCV8U)

	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Point{X: 11, Y: 11})
	defer kernel.Close()

	dilated := gocv.NewMat()
	defer dilated.Close()
	gocv.Dilate(saliency, &dilated, kernel)

	probableFg := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(gcProbableForeground, 0, 0, 0), height, width, gocv.MatTypeCV8U)
	defer probableFg.Close()
	probableFg.CopyToWithMask(&mask, dilated)

	bg := color.RGBA{R: gcBackground, G: gcBackground, B: gcBackground}
	gocv.Rectangle(&mask, image.Rect(0, 0, width, border), bg, -1)
	gocv.Rectangle(&mask, image.Rect(0, height-border, width, height), bg, -1)
	gocv.Rectangle(&mask, image.Rect(0, 0, border, height), bg, -1)
	gocv.Rectangle(&mask, image.Rect(width-border, 0, width, height), bg, -1)

	return mask
}
