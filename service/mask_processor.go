package service

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// MaskProcessor 负责处理分割掩码
type MaskProcessor struct{}

func NewMaskProcessor() *MaskProcessor {
	return &MaskProcessor{}
}

// Binarize 非零像素置为 255，输出 CV_8UC1
func (mp *MaskProcessor) Binarize(mask gocv.Mat) gocv.Mat {
	binary := gocv.NewMat()
	gocv.Threshold(mask, &binary, 0, 255, gocv.ThresholdBinary)

	if binary.Type() != gocv.MatTypeCV8U {
		converted := gocv.NewMat()
		binary.ConvertTo(&converted, gocv.MatTypeCV8U)
		binary.Close()
		return converted
	}
	return binary
}

// ExtractForeground 提取 GrabCut 的确定前景(1)与可能前景(3)
func (mp *MaskProcessor) ExtractForeground(mask gocv.Mat) gocv.Mat {
	fgMask := gocv.NewMat()
	fg := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(gcForeground, 0, 0, 0), mask.Rows(), mask.Cols(), gocv.MatTypeCV8U)
	defer fg.Close()
	gocv.Compare(mask, fg, &fgMask, gocv.CompareEQ)

	fgMaskPr := gocv.NewMat()
	defer fgMaskPr.Close()
	prFg := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(gcProbableForeground, 0, 0, 0), mask.Rows(), mask.Cols(), gocv.MatTypeCV8U)
	defer prFg.Close()
	gocv.Compare(mask, prFg, &fgMaskPr, gocv.CompareEQ)

	combined := gocv.NewMat()
	gocv.BitwiseOr(fgMask, fgMaskPr, &combined)
	fgMask.Close()

	return combined
}

// MorphologyOptimize 开运算去噪点，闭运算填小孔
func (mp *MaskProcessor) MorphologyOptimize(mask gocv.Mat, kernelSize int) gocv.Mat {
	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Point{X: kernelSize, Y: kernelSize})
	defer kernel.Close()

	opened := gocv.NewMat()
	gocv.MorphologyEx(mask, &opened, gocv.MorphOpen, kernel)

	closed := gocv.NewMat()
	gocv.MorphologyEx(opened, &closed, gocv.MorphClose, kernel)
	opened.Close()

	return closed
}

// KeepLargest 只保留面积最大的连通区域（填充）
func (mp *MaskProcessor) KeepLargest(mask gocv.Mat) gocv.Mat {
	binary := mp.Binarize(mask)
	defer binary.Close()

	contours := gocv.FindContours(binary, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	if contours.Size() == 0 {
		return binary.Clone()
	}

	maxArea := 0.0
	maxIndex := 0
	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if area > maxArea {
			maxArea = area
			maxIndex = i
		}
	}

	largest := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), mask.Rows(), mask.Cols(), gocv.MatTypeCV8U)
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	gocv.DrawContours(&largest, contours, maxIndex, white, -1)

	return largest
}
