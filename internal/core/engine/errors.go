package engine

import "errors"

// 协议错误：对单条连接致命，连接被拆除后按角色决定是否重连
var (
	// ErrBadGreeting 问候签名非法
	ErrBadGreeting = errors.New("bad greeting signature")

	// ErrVersionMismatch 协议主版本不一致
	ErrVersionMismatch = errors.New("protocol version mismatch")

	// ErrMechanismMismatch 双方认证机制不一致
	ErrMechanismMismatch = errors.New("security mechanism mismatch")

	// ErrBadFrame 帧格式非法
	ErrBadFrame = errors.New("malformed frame")

	// ErrFrameTooLarge 帧长度超过上限
	ErrFrameTooLarge = errors.New("frame exceeds maximum length")

	// ErrBadCommand 命令帧格式非法
	ErrBadCommand = errors.New("malformed command frame")

	// ErrPatternMismatch 对端模式与本端不兼容
	ErrPatternMismatch = errors.New("incompatible peer pattern")

	// ErrPeerError 对端通过 ERROR 命令报告失败
	ErrPeerError = errors.New("peer reported error")

	// ErrHandshakeState 握手未完成即收到数据帧
	ErrHandshakeState = errors.New("data frame before handshake completed")
)
