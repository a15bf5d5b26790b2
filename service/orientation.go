package service

import "gocv.io/x/gocv"

// NormalizeOrientation 保证输出为竖向（高 >= 宽）。
// 宽大于高时顺时针旋转 90°，原图左边缘成为上边缘；否则返回副本。
func NormalizeOrientation(img gocv.Mat) gocv.Mat {
	if img.Cols() <= img.Rows() {
		return img.Clone()
	}

	rotated := gocv.NewMat()
	gocv.Rotate(img, &rotated, gocv.Rotate90Clockwise)
	return rotated
}
