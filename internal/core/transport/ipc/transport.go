// Package ipc 提供基于 Unix 域套接字的进程间传输
//
// 地址形式：ipc:///path/to/socket。监听前清理同路径的残留套接字
// 文件（上次进程异常退出会留下），监听器关闭时删除自己的文件。
package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/wiremq/go-wiremq/pkg/interfaces"
)

// ErrTransportClosed 传输已关闭
var ErrTransportClosed = errors.New("transport closed")

// ============================================================================
//                              Transport 实现
// ============================================================================

// Transport IPC 传输层
type Transport struct {
	mu        sync.Mutex
	listeners map[*listener]struct{}
	closed    bool
}

// 确保实现接口
var _ interfaces.Transport = (*Transport)(nil)

// NewTransport 创建 IPC 传输层
func NewTransport() *Transport {
	return &Transport{listeners: make(map[*listener]struct{})}
}

// Schemes 返回负责的地址 scheme
func (t *Transport) Schemes() []string {
	return []string{"ipc"}
}

// Dial 建立出站连接
func (t *Transport) Dial(ctx context.Context, endpoint string) (interfaces.Conn, error) {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return nil, ErrTransportClosed
	}

	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "unix", endpoint)
	if err != nil {
		return nil, fmt.Errorf("连接失败: %w", err)
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

	// 残留套接字文件会让 Listen 失败；仅当它确是套接字时清理
	if fi, err := os.Stat(endpoint); err == nil && fi.Mode()&os.ModeSocket != 0 {
		_ = os.Remove(endpoint)
	}

	nl, err := net.Listen("unix", endpoint)
	if err != nil {
		return nil, fmt.Errorf("监听失败: %w", err)
	}

	l := &listener{Listener: nl, transport: t, path: endpoint}
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
		if err := l.close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (t *Transport) removeListener(l *listener) {
	t.mu.Lock()
	delete(t.listeners, l)
	t.mu.Unlock()
}

// ============================================================================
//                              Listener 实现
// ============================================================================

// listener IPC 监听器
type listener struct {
	net.Listener
	transport *Transport
	path      string
	closeOnce sync.Once
}

// 确保实现接口
var _ interfaces.Listener = (*listener)(nil)

// Accept 接受连接
func (l *listener) Accept() (interfaces.Conn, error) {
	return l.Listener.Accept()
}

// Close 关闭监听器并删除套接字文件
func (l *listener) Close() error {
	l.transport.removeListener(l)
	return l.close()
}

func (l *listener) close() error {
	var err error
	l.closeOnce.Do(func() {
		err = l.Listener.Close()
		_ = os.Remove(l.path)
	})
	return err
}
