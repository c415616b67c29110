package socket

import (
	"context"

	"github.com/wiremq/go-wiremq/pkg/interfaces"
	"github.com/wiremq/go-wiremq/pkg/types"
)

// ============================================================================
//                              DEALER
// ============================================================================

// Dealer 异步双向套接字
//
// 发送按轮转负载均衡并跳过满额管道，接收公平排队。
// 不加也不剥离任何信封帧，多跳拓扑的信封由调用方自理。
type Dealer struct {
	*Base
}

var _ interfaces.Socket = (*Dealer)(nil)

func newDealer(b *Base) *Dealer {
	return &Dealer{Base: b}
}

// Send 轮转发送一条消息
func (d *Dealer) Send(ctx context.Context, msg *types.Message) error {
	if msg == nil || len(msg.Frames) == 0 {
		return types.ErrEmptyMessage
	}
	return d.sendWith(ctx, func() error {
		_, err := d.trySendRR(msg)
		return err
	})
}

// TrySend 非阻塞轮转发送
func (d *Dealer) TrySend(msg *types.Message) error {
	if msg == nil || len(msg.Frames) == 0 {
		return types.ErrEmptyMessage
	}
	d.Base.mu.Lock()
	closed := d.Base.closed
	d.Base.mu.Unlock()
	if closed {
		return types.ErrSocketClosed
	}
	_, err := d.trySendRR(msg)
	return err
}

// Recv 公平接收一条消息
func (d *Dealer) Recv(ctx context.Context) (*types.Message, error) {
	_, m, err := d.recvFrom(ctx)
	return m, err
}

// TryRecv 非阻塞接收
func (d *Dealer) TryRecv() (*types.Message, error) {
	_, m, ok := d.popMessage()
	if !ok {
		return nil, types.ErrTimeout
	}
	return m, nil
}
