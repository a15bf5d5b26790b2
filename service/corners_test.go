package service

import (
	"errors"
	"testing"
)

// permutations 返回四个下标的全部 24 种排列
func permutations() [][4]int {
	var out [][4]int
	var rec func(cur []int, rest []int)
	rec = func(cur []int, rest []int) {
		if len(rest) == 0 {
			var p [4]int
			copy(p[:], cur)
			out = append(out, p)
			return
		}
		for i := range rest {
			next := append(append([]int{}, rest[:i]...), rest[i+1:]...)
			rec(append(cur, rest[i]), next)
		}
	}
	rec(nil, []int{0, 1, 2, 3})
	return out
}

func TestOrderCorners(t *testing.T) {
	testCases := []struct {
		desc string
		want Quad
	}{
		{
			desc: "axis aligned",
			want: Quad{{0, 0}, {100, 0}, {100, 300}, {0, 300}},
		},
		{
			desc: "slightly rotated",
			want: Quad{{10, 20}, {110, 30}, {100, 130}, {0, 120}},
		},
		{
			desc: "perspective",
			want: Quad{{12.5, 8}, {210, 30.25}, {190, 400}, {5, 380}},
		},
		{
			// 45° 正方形，x+y 与 y-x 均出现并列
			desc: "diamond ties",
			want: Quad{{50, 0}, {100, 50}, {50, 100}, {0, 50}},
		},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			perms := permutations()
			if len(perms) != 24 {
				t.Fatalf("len(perms) = %d", len(perms))
			}
			for _, p := range perms {
				in := Quad{tC.want[p[0]], tC.want[p[1]], tC.want[p[2]], tC.want[p[3]]}
				got, err := OrderCorners(in)
				if err != nil {
					t.Fatalf("OrderCorners(%v): %v", in, err)
				}
				if got != tC.want {
					t.Fatalf("OrderCorners(%v) = %v, want %v", in, got, tC.want)
				}
			}
		})
	}
}

func TestOrderCornersIdempotent(t *testing.T) {
	in := Quad{{300, 10}, {20, 40}, {330, 620}, {40, 650}}
	once, err := OrderCorners(in)
	if err != nil {
		t.Fatalf("OrderCorners: %v", err)
	}
	twice, err := OrderCorners(once)
	if err != nil {
		t.Fatalf("OrderCorners: %v", err)
	}
	if once != twice {
		t.Fatalf("not idempotent: %v then %v", once, twice)
	}
	want := Quad{{20, 40}, {300, 10}, {330, 620}, {40, 650}}
	if once != want {
		t.Fatalf("OrderCorners = %v, want %v", once, want)
	}
}

func TestOrderCornersDegenerate(t *testing.T) {
	testCases := []struct {
		desc string
		in   Quad
	}{
		{
			desc: "duplicate",
			in:   Quad{{0, 0}, {0, 0}, {10, 10}, {0, 10}},
		},
		{
			desc: "collinear",
			in:   Quad{{0, 0}, {1, 1}, {2, 2}, {3, 3}},
		},
		{
			desc: "self intersecting",
			in:   Quad{{0, 0}, {3, 1}, {10, 10}, {9, 8}},
		},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			_, err := OrderCorners(tC.in)
			if !errors.Is(err, ErrDegenerateGeometry) {
				t.Fatalf("OrderCorners(%v) err = %v, want degenerate geometry", tC.in, err)
			}
			if KindOf(err) != KindDegenerateGeometry {
				t.Fatalf("KindOf = %q", KindOf(err))
			}
		})
	}
}
