package socket

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/wiremq/go-wiremq/pkg/interfaces"
	"github.com/wiremq/go-wiremq/pkg/lib/log"
	"github.com/wiremq/go-wiremq/pkg/types"
)

// goneCacheSize 最近断开标识缓存容量
const goneCacheSize = 1024

// goneCacheTTL 最近断开标识的记忆时长
const goneCacheTTL = time.Minute

// ============================================================================
//                              ROUTER
// ============================================================================

// Router 路由者套接字
//
// 接收时前置来源管道的对端标识帧，发送时以首帧为目的标识
// 选管道并剥离该帧。未知标识返回 ErrUnknownPeer；最近断开
// 的标识记在带过期的 LRU 里，方便与从未出现过的标识一样
// 快速拒绝而不是悬挂等待。
type Router struct {
	*Base

	mu   sync.Mutex
	byID map[string]*peerPipe
	gone *lru.LRU[string, time.Time]
}

var _ interfaces.Socket = (*Router)(nil)

func newRouter(b *Base) *Router {
	r := &Router{
		Base: b,
		byID: make(map[string]*peerPipe),
		gone: lru.NewLRU[string, time.Time](goneCacheSize, nil, goneCacheTTL),
	}
	b.onAttach = r.pipeAttached
	b.onDetach = r.pipeDetached
	return r
}

func (r *Router) pipeAttached(pp *peerPipe) {
	key := string(pp.identity)
	r.mu.Lock()
	if old, ok := r.byID[key]; ok && !old.end.Closed() {
		logger.Warn("对端标识冲突，旧管道被替换", "identity", log.TruncateID(key, 16))
	}
	r.byID[key] = pp
	r.gone.Remove(key)
	r.mu.Unlock()
}

func (r *Router) pipeDetached(pp *peerPipe) {
	key := string(pp.identity)
	r.mu.Lock()
	if r.byID[key] == pp {
		delete(r.byID, key)
		r.gone.Add(key, time.Now())
	}
	r.mu.Unlock()
}

// Recv 接收一条消息，首帧为来源标识
func (r *Router) Recv(ctx context.Context) (*types.Message, error) {
	p, m, err := r.recvFrom(ctx)
	if err != nil {
		return nil, err
	}
	return prependIdentity(p, m), nil
}

// TryRecv 非阻塞接收
func (r *Router) TryRecv() (*types.Message, error) {
	p, m, ok := r.popMessage()
	if !ok {
		return nil, types.ErrTimeout
	}
	return prependIdentity(p, m), nil
}

func prependIdentity(p *peerPipe, m *types.Message) *types.Message {
	frames := make([][]byte, 0, len(m.Frames)+1)
	frames = append(frames, []byte(p.identity))
	frames = append(frames, m.Frames...)
	out := types.NewMessageFrames(frames...)
	out.Identity = p.identity
	return out
}

// Send 按首帧标识路由一条消息
func (r *Router) Send(ctx context.Context, msg *types.Message) error {
	target, wire, err := r.route(msg)
	if err != nil {
		return err
	}
	return r.sendWith(ctx, func() error {
		if target.end.Closed() {
			return types.ErrUnknownPeer
		}
		return target.end.TryEnqueue(wire)
	})
}

// TrySend 非阻塞路由发送
func (r *Router) TrySend(msg *types.Message) error {
	r.Base.mu.Lock()
	closed := r.Base.closed
	r.Base.mu.Unlock()
	if closed {
		return types.ErrSocketClosed
	}
	target, wire, err := r.route(msg)
	if err != nil {
		return err
	}
	return target.end.TryEnqueue(wire)
}

// route 解析目的标识并剥离标识帧
func (r *Router) route(msg *types.Message) (*peerPipe, *types.Message, error) {
	if msg == nil || len(msg.Frames) < 2 {
		return nil, nil, fmt.Errorf("%w: 路由消息至少需要标识帧与载荷", types.ErrEmptyMessage)
	}
	key := string(msg.Frames[0])

	r.mu.Lock()
	target, ok := r.byID[key]
	if !ok {
		_, recently := r.gone.Get(key)
		r.mu.Unlock()
		if recently {
			return nil, nil, fmt.Errorf("%w: 对端 %q 最近已断开", types.ErrUnknownPeer, log.TruncateID(key, 16))
		}
		return nil, nil, fmt.Errorf("%w: %q", types.ErrUnknownPeer, log.TruncateID(key, 16))
	}
	r.mu.Unlock()

	return target, types.NewMessageFrames(msg.Frames[1:]...), nil
}
