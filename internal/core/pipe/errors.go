// Package pipe 实现流控队列
package pipe

import "errors"

var (
	// ErrPipeClosed 管道已关闭
	ErrPipeClosed = errors.New("pipe closed")

	// ErrInvalidWaterMark 水位配置非法（LWM 必须小于 HWM）
	ErrInvalidWaterMark = errors.New("invalid water mark configuration")
)
