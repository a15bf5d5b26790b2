package utils

import (
	"crypto/md5"
	"encoding/hex"
)

// BytesMD5 计算字节数组MD5
func BytesMD5(data []byte) string {
	hash := md5.New()
	hash.Write(data)
	return hex.EncodeToString(hash.Sum(nil))
}

// CacheKey 由图片与可选掩码的MD5组成缓存键
func CacheKey(image, mask []byte) string {
	key := BytesMD5(image)
	if len(mask) > 0 {
		key += ":" + BytesMD5(mask)
	}
	return key
}
