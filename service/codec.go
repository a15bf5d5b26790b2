package service

import (
	"bytes"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// DecodeImage 解码 JPEG/PNG 并按 EXIF 方向摆正。
// 不透明图像返回 BGR，带透明度的返回 BGRA。
func DecodeImage(data []byte) (gocv.Mat, error) {
	if len(data) == 0 {
		return gocv.NewMat(), newError(KindDecode, "image is empty")
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return gocv.NewMat(), newError(KindDecode, "decode image: %v", err)
	}

	nrgba := imaging.Clone(img)
	bounds := nrgba.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return gocv.NewMat(), newError(KindDecode, "image has no pixels")
	}

	rgba, err := gocv.NewMatFromBytes(bounds.Dy(), bounds.Dx(), gocv.MatTypeCV8UC4, nrgba.Pix)
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "NewMatFromBytes")
	}
	defer rgba.Close()

	out := gocv.NewMat()
	if nrgba.Opaque() {
		gocv.CvtColor(rgba, &out, gocv.ColorRGBAToBGR)
	} else {
		gocv.CvtColor(rgba, &out, gocv.ColorBGRAToRGBA)
	}
	return out, nil
}

// DecodeMask 解码单通道掩码
func DecodeMask(data []byte) (gocv.Mat, error) {
	if len(data) == 0 {
		return gocv.NewMat(), newError(KindDecode, "mask is empty")
	}

	mask, err := gocv.IMDecode(data, gocv.IMReadGrayScale)
	if err != nil {
		mask.Close()
		return gocv.NewMat(), newError(KindDecode, "decode mask: %v", err)
	}
	if mask.Empty() {
		mask.Close()
		return gocv.NewMat(), newError(KindDecode, "mask could not be decoded")
	}
	return mask, nil
}

// EncodePNG 编码为 PNG，保留透明通道
func EncodePNG(img gocv.Mat) ([]byte, error) {
	if img.Empty() {
		return nil, newError(KindDecode, "nothing to encode")
	}

	buf, err := gocv.IMEncode(gocv.PNGFileExt, img)
	if err != nil {
		return nil, errors.Wrap(err, "IMEncode")
	}
	defer buf.Close()

	// GetBytes 指向 C 内存，关闭前复制
	return append([]byte(nil), buf.GetBytes()...), nil
}
