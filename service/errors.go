package service

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind 稳定的错误类别，对外暴露
type ErrorKind string

const (
	KindNoRegionFound      ErrorKind = "no_region_found"
	KindDegenerateGeometry ErrorKind = "degenerate_geometry"
	KindDegenerateTarget   ErrorKind = "degenerate_target"
	KindDecode             ErrorKind = "decode_error"
	KindUnknown            ErrorKind = "unknown"
)

// GeometryError 矫正流程中的结构化错误
type GeometryError struct {
	Kind ErrorKind
	Msg  string
}

func (e *GeometryError) Error() string {
	if e.Msg == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Is 按类别匹配，使 errors.Is(err, ErrNoRegionFound) 对任意消息生效
func (e *GeometryError) Is(target error) bool {
	t, ok := target.(*GeometryError)
	return ok && t.Kind == e.Kind
}

var (
	ErrNoRegionFound      = &GeometryError{Kind: KindNoRegionFound}
	ErrDegenerateGeometry = &GeometryError{Kind: KindDegenerateGeometry}
	ErrDegenerateTarget   = &GeometryError{Kind: KindDegenerateTarget}
	ErrDecode             = &GeometryError{Kind: KindDecode}

	// ErrQueueFull 处理队列等待超时
	ErrQueueFull = errors.New("processing queue is full")
)

func newError(kind ErrorKind, format string, args ...interface{}) error {
	return &GeometryError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf 取出错误链中的类别
func KindOf(err error) ErrorKind {
	var ge *GeometryError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindUnknown
}
