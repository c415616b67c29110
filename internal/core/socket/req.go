package socket

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wiremq/go-wiremq/pkg/interfaces"
	"github.com/wiremq/go-wiremq/pkg/types"
)

// ============================================================================
//                              REQ
// ============================================================================

// Req 请求者套接字
//
// 严格的发送/接收交替：连续两次 Send 或未发先收都返回
// ErrInvalidState。发送时自动前置空分隔帧，接收时剥离；
// 应答只接受来自承载请求的那条管道，迟到的陈旧应答丢弃。
type Req struct {
	*Base

	mu       sync.Mutex
	awaiting bool      // 已发出请求，等待应答
	current  *peerPipe // 承载当前请求的管道
}

var _ interfaces.Socket = (*Req)(nil)

func newReq(b *Base) *Req {
	return &Req{Base: b}
}

// Send 发出一次请求
func (q *Req) Send(ctx context.Context, msg *types.Message) error {
	if msg == nil || len(msg.Frames) == 0 {
		return types.ErrEmptyMessage
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.awaiting {
		return fmt.Errorf("%w: 上一次请求尚未收到应答", types.ErrInvalidState)
	}

	// 前置空分隔帧，应答方以此切分信封
	wire := types.NewMessageFrames(append([][]byte{nil}, msg.Frames...)...)
	var sent *peerPipe
	err := q.sendWith(ctx, func() error {
		p, err := q.trySendRR(wire)
		if err != nil {
			return err
		}
		sent = p
		return nil
	})
	if err != nil {
		return err
	}
	q.awaiting = true
	q.current = sent
	return nil
}

// TrySend 非阻塞发出请求
func (q *Req) TrySend(msg *types.Message) error {
	if msg == nil || len(msg.Frames) == 0 {
		return types.ErrEmptyMessage
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.awaiting {
		return fmt.Errorf("%w: 上一次请求尚未收到应答", types.ErrInvalidState)
	}
	q.Base.mu.Lock()
	closed := q.Base.closed
	q.Base.mu.Unlock()
	if closed {
		return types.ErrSocketClosed
	}

	wire := types.NewMessageFrames(append([][]byte{nil}, msg.Frames...)...)
	p, err := q.trySendRR(wire)
	if err != nil {
		return err
	}
	q.awaiting = true
	q.current = p
	return nil
}

// Recv 等待当前请求的应答
//
// 承载请求的管道在应答到达前断开时返回 ErrUnknownPeer，
// 状态复位，调用方可重发请求。
func (q *Req) Recv(ctx context.Context) (*types.Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.awaiting {
		return nil, fmt.Errorf("%w: 没有待应答的请求", types.ErrInvalidState)
	}

	q.Base.mu.Lock()
	timeout := q.Base.opts.RecvTimeout
	q.Base.mu.Unlock()

	var expire <-chan time.Time
	if timeout > 0 {
		t := q.clk.Timer(timeout)
		defer t.Stop()
		expire = t.C
	}
	for {
		if m, decided, err := q.tryReplyLocked(); decided {
			return m, err
		}
		if timeout == 0 {
			return nil, types.ErrTimeout
		}
		select {
		case <-q.recvWake:
		case <-expire:
			return nil, types.ErrTimeout
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.done:
			return nil, types.ErrSocketClosed
		}
	}
}

// TryRecv 非阻塞收取应答
func (q *Req) TryRecv() (*types.Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.awaiting {
		return nil, fmt.Errorf("%w: 没有待应答的请求", types.ErrInvalidState)
	}
	m, decided, err := q.tryReplyLocked()
	if !decided {
		return nil, types.ErrTimeout
	}
	return m, err
}

// tryReplyLocked 尝试取一条应答，decided 为真表示有了结论
//
// 调用方持有 q.mu。
func (q *Req) tryReplyLocked() (*types.Message, bool, error) {
	for {
		p, m, ok := q.popMessage()
		if !ok {
			// 承载请求的管道已断开且无积压，应答不会再来
			if q.current == nil || (q.current.end.Closed() && q.current.end.ReadPending() == 0) {
				q.awaiting = false
				q.current = nil
				return nil, true, types.ErrUnknownPeer
			}
			return nil, false, nil
		}
		if p != q.current {
			continue // 其它管道的陈旧消息
		}
		payload, ok := stripDelimiter(m)
		if !ok {
			continue // 缺分隔帧的畸形应答
		}
		q.awaiting = false
		q.current = nil
		return payload, true, nil
	}
}

// stripDelimiter 剥离首个空分隔帧之前（含）的信封
func stripDelimiter(m *types.Message) (*types.Message, bool) {
	for i, f := range m.Frames {
		if len(f) == 0 {
			if i+1 >= len(m.Frames) {
				return nil, false
			}
			return types.NewMessageFrames(m.Frames[i+1:]...), true
		}
	}
	return nil, false
}
