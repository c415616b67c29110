package interfaces

import (
	"context"
	"io"
	"net"
	"time"
)

// ============================================================================
//                              传输层契约
// ============================================================================

// Conn 传输层双工字节通道
//
// TCP、IPC、inproc、WebSocket 均实现同一契约；
// 就绪通知由 Go 运行时网络轮询器提供（Read/Write 阻塞即等待就绪）。
// Deadline 仅用于握手超时与关闭排空，活跃期由引擎自行节流。
type Conn interface {
	io.ReadWriteCloser

	// LocalAddr 返回本端地址
	LocalAddr() net.Addr

	// RemoteAddr 返回对端地址
	RemoteAddr() net.Addr

	// SetReadDeadline 设置读截止时间
	SetReadDeadline(t time.Time) error

	// SetWriteDeadline 设置写截止时间
	SetWriteDeadline(t time.Time) error
}

// Listener 入站连接监听器
type Listener interface {
	// Accept 接受一条入站通道，监听器关闭后返回错误
	Accept() (Conn, error)

	// Addr 返回实际监听地址（端口可能由系统分配）
	Addr() net.Addr

	// Close 关闭监听器，唤醒阻塞中的 Accept
	Close() error
}

// Transport 可插拔传输层
//
// 每种传输注册一个或多个地址 scheme；
// 核心按地址 scheme 选择传输，不感知物理介质差异。
type Transport interface {
	// Schemes 返回该传输负责的地址 scheme（如 "tcp"）
	Schemes() []string

	// Dial 建立出站通道
	Dial(ctx context.Context, endpoint string) (Conn, error)

	// Listen 监听入站通道
	Listen(endpoint string) (Listener, error)

	// Close 关闭传输层及其全部监听器与连接
	Close() error
}
