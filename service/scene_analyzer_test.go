package service

import (
	"testing"

	"gocv.io/x/gocv"
)

func TestSceneAnalyzer(t *testing.T) {
	flat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(90, 90, 90, 0), 100, 100, gocv.MatTypeCV8UC3)
	defer flat.Close()

	info := NewSceneAnalyzer().Analyze(flat)
	if info.Level != SceneSimple {
		t.Fatalf("Analyze(flat) = %+v, want simple", info)
	}
	if got := info.Iterations(5); got != 3 {
		t.Fatalf("Iterations(5) = %d, want 3", got)
	}
	if info.KernelSize() != 3 {
		t.Fatalf("KernelSize = %d, want 3", info.KernelSize())
	}

	// 黑白棋盘格：边缘密集
	board := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 100, 100, gocv.MatTypeCV8UC3)
	defer board.Close()
	for y := 0; y < 100; y += 4 {
		for x := (y / 4 % 2) * 4; x < 100; x += 8 {
			fillQuad(t, &board, Quad{{float64(x), float64(y)}, {float64(x + 3), float64(y)}, {float64(x + 3), float64(y + 3)}, {float64(x), float64(y + 3)}}, white)
		}
	}
	info = NewSceneAnalyzer().Analyze(board)
	if info.Level != SceneComplex {
		t.Fatalf("Analyze(board) = %+v, want complex", info)
	}
	if got := info.Iterations(5); got != 7 {
		t.Fatalf("Iterations(5) = %d, want 7", got)
	}
}
