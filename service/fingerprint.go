package service

import (
	"github.com/corona10/goimagehash"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Fingerprint 矫正结果的感知哈希，相同照片条的不同拍摄结果距离很近
func Fingerprint(img gocv.Mat) (string, error) {
	rgba, err := img.ToImage()
	if err != nil {
		return "", errors.Wrap(err, "ToImage")
	}

	hash, err := goimagehash.PerceptionHash(rgba)
	if err != nil {
		return "", errors.Wrap(err, "goimagehash.PerceptionHash")
	}
	return hash.ToString(), nil
}
