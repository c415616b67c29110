// Package tcp 提供基于 TCP 的传输层实现
//
// 地址形式：tcp://host:port，host 可为 IP、域名或 0.0.0.0。
// TCP 连接即原始双工字节通道，帧与握手由引擎负责。
package tcp

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/wiremq/go-wiremq/pkg/interfaces"
)

// ============================================================================
//                              Transport 实现
// ============================================================================

// Transport TCP 传输层
type Transport struct {
	mu        sync.Mutex
	listeners map[*listener]struct{}
	closed    bool
}

// 确保实现接口
var _ interfaces.Transport = (*Transport)(nil)

// NewTransport 创建 TCP 传输层
func NewTransport() *Transport {
	return &Transport{listeners: make(map[*listener]struct{})}
}

// Schemes 返回负责的地址 scheme
func (t *Transport) Schemes() []string {
	return []string{"tcp"}
}

// Dial 建立出站连接
func (t *Transport) Dial(ctx context.Context, endpoint string) (interfaces.Conn, error) {
	if t.isClosed() {
		return nil, ErrTransportClosed
	}

	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "tcp", endpoint)
	if err != nil {
		return nil, fmt.Errorf("连接失败: %w", err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
		_ = tc.SetKeepAlive(true)
	}
	return conn, nil
}

// Listen 监听入站连接
func (t *Transport) Listen(endpoint string) (interfaces.Listener, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, ErrTransportClosed
	}

	nl, err := net.Listen("tcp", endpoint)
	if err != nil {
		return nil, fmt.Errorf("监听失败: %w", err)
	}

	l := &listener{Listener: nl, transport: t}
	t.listeners[l] = struct{}{}
	return l, nil
}

// Close 关闭传输层及全部监听器
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	ls := make([]*listener, 0, len(t.listeners))
	for l := range t.listeners {
		ls = append(ls, l)
	}
	t.listeners = make(map[*listener]struct{})
	t.mu.Unlock()

	var lastErr error
	for _, l := range ls {
		if err := l.Listener.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (t *Transport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *Transport) removeListener(l *listener) {
	t.mu.Lock()
	delete(t.listeners, l)
	t.mu.Unlock()
}

// ============================================================================
//                              Listener 实现
// ============================================================================

// listener TCP 监听器
type listener struct {
	net.Listener
	transport *Transport
	closeOnce sync.Once
}

// 确保实现接口
var _ interfaces.Listener = (*listener)(nil)

// Accept 接受连接
func (l *listener) Accept() (interfaces.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
		_ = tc.SetKeepAlive(true)
	}
	return conn, nil
}

// Close 关闭监听器
func (l *listener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		l.transport.removeListener(l)
		err = l.Listener.Close()
	})
	return err
}
