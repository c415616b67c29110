package socket

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wiremq/go-wiremq/pkg/interfaces"
	"github.com/wiremq/go-wiremq/pkg/types"
)

// ============================================================================
//                              REP
// ============================================================================

// Rep 应答者套接字
//
// 接收时把空分隔帧之前的信封摘下保存，应答时原样装回并
// 发往请求来源的那条管道，保证多跳拓扑下应答原路返回。
// 接收/应答必须交替，违反返回 ErrInvalidState。
type Rep struct {
	*Base

	mu       sync.Mutex
	pending  bool     // 持有未应答的请求
	envelope [][]byte // 含结尾空分隔帧
	source   *peerPipe
}

var _ interfaces.Socket = (*Rep)(nil)

func newRep(b *Base) *Rep {
	return &Rep{Base: b}
}

// Recv 接收一个请求
func (r *Rep) Recv(ctx context.Context) (*types.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending {
		return nil, fmt.Errorf("%w: 上一个请求尚未应答", types.ErrInvalidState)
	}

	for {
		p, m, err := r.recvFrom(ctx)
		if err != nil {
			return nil, err
		}
		envelope, payload, ok := splitEnvelope(m)
		if !ok {
			continue // 无分隔帧的畸形请求
		}
		r.pending = true
		r.envelope = envelope
		r.source = p
		return payload, nil
	}
}

// TryRecv 非阻塞接收请求
func (r *Rep) TryRecv() (*types.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending {
		return nil, fmt.Errorf("%w: 上一个请求尚未应答", types.ErrInvalidState)
	}
	for {
		p, m, ok := r.popMessage()
		if !ok {
			return nil, types.ErrTimeout
		}
		envelope, payload, split := splitEnvelope(m)
		if !split {
			continue
		}
		r.pending = true
		r.envelope = envelope
		r.source = p
		return payload, nil
	}
}

// Send 应答当前请求
//
// 请求来源的管道已断开时返回 ErrUnknownPeer 并复位状态。
func (r *Rep) Send(ctx context.Context, msg *types.Message) error {
	if msg == nil || len(msg.Frames) == 0 {
		return types.ErrEmptyMessage
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.pending {
		return fmt.Errorf("%w: 没有待应答的请求", types.ErrInvalidState)
	}

	if r.source.end.Closed() {
		r.reset()
		return types.ErrUnknownPeer
	}
	wire := types.NewMessageFrames(append(append([][]byte{}, r.envelope...), msg.Frames...)...)
	source := r.source
	err := r.sendWith(ctx, func() error {
		if source.end.Closed() {
			return types.ErrUnknownPeer
		}
		return source.end.TryEnqueue(wire)
	})
	if err != nil {
		if errors.Is(err, types.ErrUnknownPeer) {
			r.reset()
		}
		return err
	}
	r.reset()
	return nil
}

// TrySend 非阻塞应答
func (r *Rep) TrySend(msg *types.Message) error {
	if msg == nil || len(msg.Frames) == 0 {
		return types.ErrEmptyMessage
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.pending {
		return fmt.Errorf("%w: 没有待应答的请求", types.ErrInvalidState)
	}
	if r.source.end.Closed() {
		r.reset()
		return types.ErrUnknownPeer
	}
	wire := types.NewMessageFrames(append(append([][]byte{}, r.envelope...), msg.Frames...)...)
	if err := r.source.end.TryEnqueue(wire); err != nil {
		return err
	}
	r.reset()
	return nil
}

func (r *Rep) reset() {
	r.pending = false
	r.envelope = nil
	r.source = nil
}

// splitEnvelope 按首个空分隔帧切分信封与载荷
//
// 返回的信封包含空分隔帧本身。
func splitEnvelope(m *types.Message) (envelope [][]byte, payload *types.Message, ok bool) {
	for i, f := range m.Frames {
		if len(f) == 0 {
			if i+1 >= len(m.Frames) {
				return nil, nil, false
			}
			env := make([][]byte, i+1)
			copy(env, m.Frames[:i+1])
			return env, types.NewMessageFrames(m.Frames[i+1:]...), true
		}
	}
	return nil, nil, false
}
