package service

import "github.com/bjh-developer/restrip/model"

// SplitFrames 将竖向照片条按高度等分为 count 格，余数归入最后一格
func SplitFrames(width, height, count int) []model.Frame {
	if count <= 0 || width <= 0 || height < count {
		return nil
	}

	frameHeight := height / count
	frames := make([]model.Frame, count)
	for i := range frames {
		frames[i] = model.Frame{
			Index:  i,
			X:      0,
			Y:      i * frameHeight,
			Width:  width,
			Height: frameHeight,
		}
	}
	frames[count-1].Height = height - frames[count-1].Y
	return frames
}
