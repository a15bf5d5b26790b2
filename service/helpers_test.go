package service

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/bjh-developer/restrip/config"
	"gocv.io/x/gocv"
)

var (
	opaqueRed = color.RGBA{R: 200, G: 40, B: 40, A: 255}
	white     = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

func testRectifyConfig() *config.RectifyConfig {
	return &config.RectifyConfig{AlphaThreshold: 8, MaxConcurrent: 2, QueueTimeout: 5}
}

// rotatedRect 以 (cx, cy) 为中心、宽 w 高 h 的矩形旋转 deg 度后的四个角
func rotatedRect(cx, cy, w, h, deg float64) Quad {
	rad := deg * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	offsets := [4][2]float64{{-w / 2, -h / 2}, {w / 2, -h / 2}, {w / 2, h / 2}, {-w / 2, h / 2}}
	var q Quad
	for i, o := range offsets {
		q[i] = Point{
			X: cx + o[0]*cos - o[1]*sin,
			Y: cy + o[0]*sin + o[1]*cos,
		}
	}
	return q
}

func fillQuad(t *testing.T, mat *gocv.Mat, q Quad, c color.RGBA) {
	t.Helper()
	pts := make([]image.Point, len(q))
	for i, p := range q {
		pts[i] = image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
	}
	pv := gocv.NewPointsVectorFromPoints([][]image.Point{pts})
	defer pv.Close()
	gocv.FillPoly(mat, pv, c)
}

func newMask(w, h int) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), h, w, gocv.MatTypeCV8U)
}

// newCanvas 全透明 BGRA 画布
func newCanvas(w, h int) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), h, w, gocv.MatTypeCV8UC4)
}

// stripScene 在透明画布上绘制不透明照片条，并返回对应掩码
func stripScene(t *testing.T, canvasW, canvasH int, q Quad) (gocv.Mat, gocv.Mat) {
	t.Helper()
	img := newCanvas(canvasW, canvasH)
	fillQuad(t, &img, q, opaqueRed)
	mask := newMask(canvasW, canvasH)
	fillQuad(t, &mask, q, white)
	return img, mask
}

// nearestDist 返回 p 到 q 中最近角点的距离
func nearestDist(p Point, q Quad) float64 {
	best := math.Inf(1)
	for _, c := range q {
		if d := dist(p, c); d < best {
			best = d
		}
	}
	return best
}

func alphaAt(mat gocv.Mat, row, col int) uint8 {
	return mat.GetVecbAt(row, col)[3]
}
