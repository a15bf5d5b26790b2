package service

import "gocv.io/x/gocv"

// SceneLevel 背景复杂度等级
type SceneLevel string

const (
	SceneSimple  SceneLevel = "simple"
	SceneMedium  SceneLevel = "medium"
	SceneComplex SceneLevel = "complex"
)

// SceneInfo 背景复杂度度量
type SceneInfo struct {
	Level         SceneLevel
	EdgeDensity   float64
	ColorVariance float64
}

// SceneAnalyzer 根据边缘密度和颜色离散度调整 GrabCut 参数
type SceneAnalyzer struct{}

func NewSceneAnalyzer() *SceneAnalyzer {
	return &SceneAnalyzer{}
}

// Analyze 输入为 BGR 图像
func (sa *SceneAnalyzer) Analyze(img gocv.Mat) SceneInfo {
	edgeDensity := sa.edgeDensity(img)
	colorVariance := sa.colorVariance(img)

	level := SceneMedium
	switch {
	case edgeDensity < 0.05 && colorVariance < 30:
		level = SceneSimple
	case edgeDensity > 0.15 || colorVariance > 60:
		level = SceneComplex
	}

	return SceneInfo{
		Level:         level,
		EdgeDensity:   edgeDensity,
		ColorVariance: colorVariance,
	}
}

// Iterations 简单背景少迭代，复杂背景多迭代
func (info SceneInfo) Iterations(base int) int {
	switch info.Level {
	case SceneSimple:
		return max(2, base-2)
	case SceneComplex:
		return base + 2
	}
	return base
}

// KernelSize 形态学核大小
func (info SceneInfo) KernelSize() int {
	if info.Level == SceneSimple {
		return 3
	}
	return 5
}

func (sa *SceneAnalyzer) edgeDensity(img gocv.Mat) float64 {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, 50, 150)

	return float64(gocv.CountNonZero(edges)) / float64(img.Rows()*img.Cols())
}

// colorVariance Lab 三通道标准差的均值
func (sa *SceneAnalyzer) colorVariance(img gocv.Mat) float64 {
	lab := gocv.NewMat()
	defer lab.Close()
	gocv.CvtColor(img, &lab, gocv.ColorBGRToLab)

	mean := gocv.NewMat()
	stddev := gocv.NewMat()
	defer mean.Close()
	defer stddev.Close()
	gocv.MeanStdDev(lab, &mean, &stddev)

	sum := 0.0
	for i := 0; i < stddev.Rows(); i++ {
		sum += stddev.GetDoubleAt(i, 0)
	}
	return sum / float64(stddev.Rows())
}
