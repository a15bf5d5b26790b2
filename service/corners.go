package service

import (
	"math"
	"sort"
)

const (
	coincideEps = 1e-6
	minQuadArea = 1e-6
	// tieEps 小于该差值的 x+y / y-x 视为相等
	tieEps = 1e-3
)

// OrderCorners 将任意顺序的四个点排列为 左上、右上、右下、左下。
//
// 左上为 x+y 最小，右下为 x+y 最大，右上为 y-x 最小，左下为 y-x 最大。
// 依次在尚未分配的点中选取（左上、右下、右上、左下）。差值在 tieEps 内视为并列，
// 求最小值时取较小的 y，求最大值时取较大的 y。点先按 (y, x) 排序，结果与输入顺序无关。
// 重合点、共线点或排列后自交的四边形返回 ErrDegenerateGeometry。
func OrderCorners(q Quad) (Quad, error) {
	for i := 0; i < len(q); i++ {
		for j := i + 1; j < len(q); j++ {
			if dist(q[i], q[j]) < coincideEps {
				return Quad{}, newError(KindDegenerateGeometry, "corners %d and %d coincide at (%.2f, %.2f)", i, j, q[i].X, q[i].Y)
			}
		}
	}

	pts := q
	sort.Slice(pts[:], func(i, j int) bool {
		if pts[i].Y != pts[j].Y {
			return pts[i].Y < pts[j].Y
		}
		return pts[i].X < pts[j].X
	})

	var used [4]bool
	pick := func(key func(Point) float64, wantMax bool) Point {
		best := -1
		for i, p := range pts {
			if used[i] {
				continue
			}
			if best < 0 {
				best = i
				continue
			}
			k, bk := key(p), key(pts[best])
			switch {
			case math.Abs(k-bk) <= tieEps:
				if (wantMax && p.Y > pts[best].Y) || (!wantMax && p.Y < pts[best].Y) {
					best = i
				}
			case wantMax && k > bk, !wantMax && k < bk:
				best = i
			}
		}
		used[best] = true
		return pts[best]
	}

	sum := func(p Point) float64 { return p.X + p.Y }
	diff := func(p Point) float64 { return p.Y - p.X }

	tl := pick(sum, false)
	br := pick(sum, true)
	tr := pick(diff, false)
	bl := pick(diff, true)
	ordered := Quad{tl, tr, br, bl}

	if ordered.area() < minQuadArea {
		return Quad{}, newError(KindDegenerateGeometry, "corners are collinear")
	}
	if segmentsCross(tl, tr, br, bl) || segmentsCross(tr, br, bl, tl) {
		return Quad{}, newError(KindDegenerateGeometry, "ordered corners self-intersect")
	}
	return ordered, nil
}
