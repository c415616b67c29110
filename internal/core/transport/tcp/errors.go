// Package tcp 提供基于 TCP 的传输层实现
package tcp

import "errors"

var (
	// ErrTransportClosed 传输已关闭
	ErrTransportClosed = errors.New("transport closed")
)
