package utils

import (
	"strconv"
	"time"
)

// GenerateID 生成基于时间戳的ID
func GenerateID() int64 {
	return time.Now().UnixNano()
}

// RequestID 生成请求ID，用于日志关联
func RequestID() string {
	return strconv.FormatInt(GenerateID(), 36)
}
