package transport

import "errors"

var (
	// ErrBadAddress 地址格式非法（期望 scheme://endpoint）
	ErrBadAddress = errors.New("malformed address")

	// ErrUnknownScheme 没有传输负责该 scheme
	ErrUnknownScheme = errors.New("no transport registered for scheme")

	// ErrSchemeTaken scheme 已被其他传输注册
	ErrSchemeTaken = errors.New("scheme already registered")

	// ErrRegistryClosed 注册表已关闭
	ErrRegistryClosed = errors.New("transport registry closed")
)
