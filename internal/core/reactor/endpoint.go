package reactor

import (
	"net"
	"sync"

	"github.com/wiremq/go-wiremq/pkg/interfaces"
)

// ============================================================================
//                              端点
// ============================================================================

// Endpoint Bind 或 Connect 产生的生命周期句柄
//
// 绑定端点持有监听器并跟踪其接入的全部会话；
// 连接端点最多持有一个活跃会话，由重连循环维护。
type Endpoint struct {
	addr     string
	listener interfaces.Listener // 仅绑定端点

	done chan struct{}
	once sync.Once

	mu       sync.Mutex
	sessions map[*Session]struct{}
}

func newEndpoint(addr string, l interfaces.Listener) *Endpoint {
	return &Endpoint{
		addr:     addr,
		listener: l,
		done:     make(chan struct{}),
		sessions: make(map[*Session]struct{}),
	}
}

// Addr 返回创建端点时使用的地址
func (ep *Endpoint) Addr() string { return ep.addr }

// ListenerAddr 返回绑定端点的实际监听地址（端口可能由系统分配），
// 连接端点返回 nil
func (ep *Endpoint) ListenerAddr() net.Addr {
	if ep.listener == nil {
		return nil
	}
	return ep.listener.Addr()
}

// Close 关闭端点及其全部会话，幂等
func (ep *Endpoint) Close() error {
	var err error
	ep.once.Do(func() {
		close(ep.done)
		if ep.listener != nil {
			err = ep.listener.Close()
		}
		ep.mu.Lock()
		sessions := make([]*Session, 0, len(ep.sessions))
		for s := range ep.sessions {
			sessions = append(sessions, s)
		}
		ep.mu.Unlock()
		for _, s := range sessions {
			s.Close()
		}
	})
	return err
}

func (ep *Endpoint) closed() bool {
	select {
	case <-ep.done:
		return true
	default:
		return false
	}
}

func (ep *Endpoint) track(s *Session) {
	ep.mu.Lock()
	ep.sessions[s] = struct{}{}
	ep.mu.Unlock()
}

func (ep *Endpoint) untrack(s *Session) {
	ep.mu.Lock()
	delete(ep.sessions, s)
	ep.mu.Unlock()
}
