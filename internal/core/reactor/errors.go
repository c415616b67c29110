package reactor

import "errors"

var (
	// ErrReactorClosed 反应器已关闭
	ErrReactorClosed = errors.New("reactor closed")

	// ErrSessionClosed 会话已主动关闭
	ErrSessionClosed = errors.New("session closed")

	// ErrEndpointClosed 端点已关闭
	ErrEndpointClosed = errors.New("endpoint closed")
)
