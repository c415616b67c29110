package wiremq

import "github.com/wiremq/go-wiremq/pkg/types"

// 错误哨兵（转发自 pkg/types，方便调用方 errors.Is 判定）
var (
	// ErrContextClosed Context 已终止
	ErrContextClosed = types.ErrContextClosed

	// ErrSocketClosed 套接字已关闭
	ErrSocketClosed = types.ErrSocketClosed

	// ErrNotSupported 模式不支持该操作
	ErrNotSupported = types.ErrNotSupported

	// ErrPipeFull 管道达到高水位
	ErrPipeFull = types.ErrPipeFull

	// ErrTimeout 发送/接收超时
	ErrTimeout = types.ErrTimeout

	// ErrUnknownPeer 目的对端标识未知或已断开
	ErrUnknownPeer = types.ErrUnknownPeer

	// ErrInvalidState 违反模式状态机（如 REQ 连发两次）
	ErrInvalidState = types.ErrInvalidState

	// ErrEmptyMessage 消息没有任何帧
	ErrEmptyMessage = types.ErrEmptyMessage
)
