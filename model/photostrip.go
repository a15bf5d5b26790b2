package model

// PhotostripResult 矫正后的照片条结果
type PhotostripResult struct {
	Key         string  `json:"key"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Photostrip  []byte  `json:"photostrip"` // PNG，JSON中为base64
	Frames      []Frame `json:"frames,omitempty"`
	Fingerprint string  `json:"fingerprint,omitempty"` // 感知哈希
	Timestamp   int64   `json:"timestamp"`
}

// Frame 照片条中的单格画面，坐标相对矫正后的图像
type Frame struct {
	Index  int `json:"index"`
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Dimensions 输出尺寸
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// RectifyInput 请求中的图片与可选掩码（base64）
type RectifyInput struct {
	Image string `json:"image" binding:"required"`
	Mask  string `json:"mask,omitempty"`
}

// RectifyRequest 矫正请求
type RectifyRequest struct {
	Input RectifyInput `json:"input" binding:"required"`
}

// RectifyResponse 矫正响应
type RectifyResponse struct {
	Success     bool        `json:"success"`
	Key         string      `json:"key,omitempty"`
	Photostrip  string      `json:"photostrip,omitempty"`
	Dimensions  *Dimensions `json:"dimensions,omitempty"`
	Frames      []Frame     `json:"frames,omitempty"`
	Fingerprint string      `json:"fingerprint,omitempty"`
	Message     string      `json:"message,omitempty"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}
