package handler

import (
	"net/http"

	"github.com/bjh-developer/restrip/service"
	"github.com/pkg/errors"
)

// errorStatus 错误类别到 HTTP 状态码与提示信息
func errorStatus(err error) (int, string) {
	if errors.Is(err, service.ErrQueueFull) {
		return http.StatusServiceUnavailable, "processing queue is full, please retry later"
	}

	switch service.KindOf(err) {
	case service.KindDecode:
		return http.StatusBadRequest, "image or mask could not be decoded"
	case service.KindNoRegionFound:
		return http.StatusUnprocessableEntity, "no photostrip detected"
	case service.KindDegenerateGeometry, service.KindDegenerateTarget:
		return http.StatusUnprocessableEntity, "photostrip region is too small or malformed"
	default:
		return http.StatusInternalServerError, "processing failed"
	}
}
