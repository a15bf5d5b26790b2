package service

import (
	"math"

	"gocv.io/x/gocv"
)

// Point 像素坐标
type Point struct {
	X, Y float64
}

// Quad 四边形。经 OrderCorners 后依次为 左上、右上、右下、左下
type Quad [4]Point

func dist(a, b Point) float64 { return math.Hypot(a.X-b.X, a.Y-b.Y) }

// area 多边形面积（鞋带公式）
func (q Quad) area() float64 {
	s := 0.0
	for i := range q {
		j := (i + 1) % len(q)
		s += q[i].X*q[j].Y - q[j].X*q[i].Y
	}
	return math.Abs(s) / 2
}

func (q Quad) point2f() []gocv.Point2f {
	pts := make([]gocv.Point2f, len(q))
	for i, p := range q {
		pts[i] = gocv.Point2f{X: float32(p.X), Y: float32(p.Y)}
	}
	return pts
}

func cross(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// segmentsCross 判断线段 ab 与 cd 是否严格相交
func segmentsCross(a, b, c, d Point) bool {
	d1 := cross(c, d, a)
	d2 := cross(c, d, b)
	d3 := cross(a, b, c)
	d4 := cross(a, b, d)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}
