// Package ws 提供基于 WebSocket 的传输层实现
//
// 地址形式：ws://host:port/path。HTTP 升级握手完全委托给
// gorilla/websocket，本包只把升级后的连接适配为普通双工字节
// 通道接入传输契约；线路帧与协议握手仍由引擎负责，每个
// WebSocket 二进制消息承载一段字节流。
package ws

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/wiremq/go-wiremq/pkg/interfaces"
	"github.com/wiremq/go-wiremq/pkg/lib/log"
)

var logger = log.Logger("transport/ws")

var (
	// ErrTransportClosed 传输已关闭
	ErrTransportClosed = errors.New("transport closed")

	// ErrListenerClosed 监听器已关闭
	ErrListenerClosed = errors.New("ws listener closed")
)

// ============================================================================
//                              Transport 实现
// ============================================================================

// Transport WebSocket 传输层
type Transport struct {
	mu        sync.Mutex
	listeners map[*listener]struct{}
	closed    bool
}

// 确保实现接口
var _ interfaces.Transport = (*Transport)(nil)

// NewTransport 创建 WebSocket 传输层
func NewTransport() *Transport {
	return &Transport{listeners: make(map[*listener]struct{})}
}

// Schemes 返回负责的地址 scheme
func (t *Transport) Schemes() []string {
	return []string{"ws"}
}

// Dial 建立出站连接
func (t *Transport) Dial(ctx context.Context, endpoint string) (interfaces.Conn, error) {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return nil, ErrTransportClosed
	}

	wc, _, err := websocket.DefaultDialer.DialContext(ctx, "ws://"+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("连接失败: %w", err)
	}
	return newConn(wc), nil
}

// Listen 监听入站连接
func (t *Transport) Listen(endpoint string) (interfaces.Listener, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, ErrTransportClosed
	}

	host, path := splitEndpoint(endpoint)
	nl, err := net.Listen("tcp", host)
	if err != nil {
		return nil, fmt.Errorf("监听失败: %w", err)
	}

	l := &listener{
		transport: t,
		netl:      nl,
		path:      path,
		accepted:  make(chan interfaces.Conn, 16),
		done:      make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(path, l.handleUpgrade)
	l.srv = &http.Server{Handler: mux}
	go func() {
		if err := l.srv.Serve(nl); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Debug("HTTP 服务退出", "endpoint", endpoint, "err", err)
		}
	}()

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

// splitEndpoint 拆分 "host:port/path"；缺省路径为 "/"
func splitEndpoint(endpoint string) (host, path string) {
	for i := 0; i < len(endpoint); i++ {
		if endpoint[i] == '/' {
			return endpoint[:i], endpoint[i:]
		}
	}
	return endpoint, "/"
}

// ============================================================================
//                              Listener 实现
// ============================================================================

var upgrader = websocket.Upgrader{
	// 消息端点不做同源限制，认证由机制握手负责
	CheckOrigin: func(*http.Request) bool { return true },
}

// listener WebSocket 监听器
type listener struct {
	transport *Transport
	netl      net.Listener
	srv       *http.Server
	path      string
	accepted  chan interfaces.Conn
	done      chan struct{}
	closeOnce sync.Once
}

// 确保实现接口
var _ interfaces.Listener = (*listener)(nil)

func (l *listener) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	wc, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Debug("升级失败", "remote", r.RemoteAddr, "err", err)
		return
	}
	select {
	case l.accepted <- newConn(wc):
	case <-l.done:
		_ = wc.Close()
	}
}

// Accept 接受连接
func (l *listener) Accept() (interfaces.Conn, error) {
	select {
	case c := <-l.accepted:
		return c, nil
	case <-l.done:
		return nil, ErrListenerClosed
	}
}

// Addr 返回实际监听地址
func (l *listener) Addr() net.Addr { return l.netl.Addr() }

// Close 关闭监听器
func (l *listener) Close() error {
	l.transport.removeListener(l)
	return l.close()
}

func (l *listener) close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.done)
		err = l.srv.Close()
	})
	return err
}
