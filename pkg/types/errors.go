package types

import "errors"

// 跨层共享的错误定义
//
// 错误分类见各实现包：协议错误对单条连接致命；容量、寻址、
// 状态错误同步返回调用方；任何单个对端的失败都不会波及 Context。
var (
	// ────────────────────────────────────────────────────────────────────────
	// 生命周期错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrContextClosed Context 已终止
	ErrContextClosed = errors.New("context terminated")

	// ErrSocketClosed 套接字已关闭
	ErrSocketClosed = errors.New("socket closed")

	// ErrNotSupported 模式不支持该操作（如 PUB 上调用 Recv）
	ErrNotSupported = errors.New("operation not supported by pattern")

	// ────────────────────────────────────────────────────────────────────────
	// 容量错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrPipeFull 管道达到高水位
	ErrPipeFull = errors.New("pipe at high water mark")

	// ErrTimeout 阻塞调用超时
	ErrTimeout = errors.New("operation timed out")

	// ────────────────────────────────────────────────────────────────────────
	// 寻址与状态错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrUnknownPeer 路由标识未知或对端已分离
	ErrUnknownPeer = errors.New("unknown peer identity")

	// ErrInvalidState 请求/应答状态机被违反
	ErrInvalidState = errors.New("socket in invalid state for operation")

	// ErrEmptyMessage 消息不含任何帧
	ErrEmptyMessage = errors.New("message has no frames")
)
