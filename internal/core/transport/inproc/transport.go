// Package inproc 提供进程内传输
//
// 地址形式：inproc://name。命名空间以传输实例（即 Context）为边界；
// 连接两端各持有一条带缓冲的内存双工通道，无系统调用。
// 监听者尚未就绪时 Dial 失败，由连接器的退避重试覆盖
// "先 connect 后 bind" 的使用方式。
package inproc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/wiremq/go-wiremq/pkg/interfaces"
)

var (
	// ErrTransportClosed 传输已关闭
	ErrTransportClosed = errors.New("transport closed")

	// ErrNameInUse 名称已被监听
	ErrNameInUse = errors.New("inproc name already bound")

	// ErrNotBound 名称无监听者
	ErrNotBound = errors.New("inproc name not bound")

	// ErrListenerClosed 监听器已关闭
	ErrListenerClosed = errors.New("inproc listener closed")
)

// ============================================================================
//                              Transport 实现
// ============================================================================

// Transport 进程内传输层
type Transport struct {
	mu     sync.Mutex
	names  map[string]*listener
	closed bool
}

// 确保实现接口
var _ interfaces.Transport = (*Transport)(nil)

// NewTransport 创建进程内传输层（每个 Context 一份，命名空间隔离）
func NewTransport() *Transport {
	return &Transport{names: make(map[string]*listener)}
}

// Schemes 返回负责的地址 scheme
func (t *Transport) Schemes() []string {
	return []string{"inproc"}
}

// Dial 连接到已监听的名称
func (t *Transport) Dial(ctx context.Context, endpoint string) (interfaces.Conn, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, ErrTransportClosed
	}
	l, ok := t.names[endpoint]
	t.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotBound, endpoint)
	}

	client, server := newPair(endpoint)
	select {
	case l.accept <- server:
		return client, nil
	case <-l.done:
		_ = client.Close()
		return nil, fmt.Errorf("%w: %q", ErrNotBound, endpoint)
	case <-ctx.Done():
		_ = client.Close()
		return nil, ctx.Err()
	}
}

// Listen 监听名称
func (t *Transport) Listen(endpoint string) (interfaces.Listener, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, ErrTransportClosed
	}
	if _, ok := t.names[endpoint]; ok {
		return nil, fmt.Errorf("%w: %q", ErrNameInUse, endpoint)
	}

	l := &listener{
		name:      endpoint,
		transport: t,
		accept:    make(chan *conn),
		done:      make(chan struct{}),
	}
	t.names[endpoint] = l
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
	ls := make([]*listener, 0, len(t.names))
	for _, l := range t.names {
		ls = append(ls, l)
	}
	t.names = make(map[string]*listener)
	t.mu.Unlock()

	for _, l := range ls {
		l.close()
	}
	return nil
}

func (t *Transport) removeListener(name string) {
	t.mu.Lock()
	delete(t.names, name)
	t.mu.Unlock()
}

// ============================================================================
//                              Listener 实现
// ============================================================================

// listener 进程内监听器
type listener struct {
	name      string
	transport *Transport
	accept    chan *conn
	done      chan struct{}
	closeOnce sync.Once
}

// 确保实现接口
var _ interfaces.Listener = (*listener)(nil)

// Accept 接受连接
func (l *listener) Accept() (interfaces.Conn, error) {
	select {
	case c := <-l.accept:
		return c, nil
	case <-l.done:
		return nil, ErrListenerClosed
	}
}

// Addr 返回监听地址
func (l *listener) Addr() net.Addr { return addr(l.name) }

// Close 关闭监听器并释放名称
func (l *listener) Close() error {
	l.transport.removeListener(l.name)
	l.close()
	return nil
}

func (l *listener) close() {
	l.closeOnce.Do(func() { close(l.done) })
}
