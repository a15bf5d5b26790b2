package service

import (
	"github.com/bjh-developer/restrip/config"
	"gocv.io/x/gocv"
)

// Detection 外部检测结果：掩码，或已给出的旋转外接框
type Detection struct {
	Mask gocv.Mat
	Box  *Quad
}

// Pipeline 掩码 -> 区域定位 -> 角点排序 -> 透视矫正 -> 方向归一。
// 无共享可变状态，可并发使用。
type Pipeline struct {
	locator   *RegionLocator
	rectifier *Rectifier
}

func NewPipeline(cfg *config.RectifyConfig) *Pipeline {
	return &Pipeline{
		locator:   NewRegionLocator(),
		rectifier: NewRectifier(cfg),
	}
}

// Rectify 对图像与其掩码执行完整流程，返回的 Mat 由调用方关闭
func (p *Pipeline) Rectify(img, mask gocv.Mat) (gocv.Mat, error) {
	if err := validateInputs(img, mask); err != nil {
		return gocv.NewMat(), err
	}

	region, err := p.locator.Locate(mask)
	if err != nil {
		return gocv.NewMat(), err
	}
	return p.rectifyQuad(img, region.Corners)
}

// RectifyBest 从多个候选掩码中取面积最大者
func (p *Pipeline) RectifyBest(img gocv.Mat, masks []gocv.Mat) (gocv.Mat, error) {
	if len(masks) == 0 {
		return gocv.NewMat(), newError(KindNoRegionFound, "no candidate masks")
	}
	for _, mask := range masks {
		if err := validateInputs(img, mask); err != nil {
			return gocv.NewMat(), err
		}
	}

	region, _, err := p.locator.LocateBest(masks)
	if err != nil {
		return gocv.NewMat(), err
	}
	return p.rectifyQuad(img, region.Corners)
}

// RectifyDetection 优先使用检测框，否则使用掩码
func (p *Pipeline) RectifyDetection(img gocv.Mat, det Detection) (gocv.Mat, error) {
	if det.Box == nil {
		return p.Rectify(img, det.Mask)
	}
	if err := validateImage(img); err != nil {
		return gocv.NewMat(), err
	}
	return p.rectifyQuad(img, *det.Box)
}

func (p *Pipeline) rectifyQuad(img gocv.Mat, corners Quad) (gocv.Mat, error) {
	ordered, err := OrderCorners(corners)
	if err != nil {
		return gocv.NewMat(), err
	}

	rectified, err := p.rectifier.Rectify(img, ordered)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer rectified.Close()

	return NormalizeOrientation(rectified), nil
}

func validateImage(img gocv.Mat) error {
	if img.Empty() || img.Rows() == 0 || img.Cols() == 0 {
		return newError(KindDecode, "image is empty")
	}
	if c := img.Channels(); c != 3 && c != 4 {
		return newError(KindDecode, "image must have 3 or 4 channels, got %d", c)
	}
	return nil
}

func validateInputs(img, mask gocv.Mat) error {
	if err := validateImage(img); err != nil {
		return err
	}
	if mask.Empty() {
		return newError(KindDecode, "mask is empty")
	}
	if mask.Channels() != 1 {
		return newError(KindDecode, "mask must be single channel, got %d", mask.Channels())
	}
	if mask.Rows() != img.Rows() || mask.Cols() != img.Cols() {
		return newError(KindDecode, "mask %dx%d does not match image %dx%d",
			mask.Cols(), mask.Rows(), img.Cols(), img.Rows())
	}
	return nil
}
