package socket

import (
	"context"
	"sync"

	"github.com/wiremq/go-wiremq/internal/core/engine"
	"github.com/wiremq/go-wiremq/internal/core/socket/trie"
	"github.com/wiremq/go-wiremq/pkg/interfaces"
	"github.com/wiremq/go-wiremq/pkg/types"
)

// ============================================================================
//                              PUB
// ============================================================================

// Pub 发布者套接字
//
// 每个订阅者管道各持一棵订阅树，发布时只向匹配的管道扇出。
// 订阅者满额即丢弃该订阅者的副本，发布调用从不阻塞——
// 慢订阅者不能拖住整个扇出。
type Pub struct {
	*Base

	mu   sync.Mutex
	subs map[*peerPipe]*trie.Trie
}

var _ interfaces.Socket = (*Pub)(nil)

func newPub(b *Base) *Pub {
	p := &Pub{Base: b, subs: make(map[*peerPipe]*trie.Trie)}
	b.onAttach = p.pipeAttached
	b.onDetach = p.pipeDetached
	b.onReadable = p.consumeControl
	return p
}

func (p *Pub) pipeAttached(pp *peerPipe) {
	p.mu.Lock()
	p.subs[pp] = trie.New()
	p.mu.Unlock()
}

func (p *Pub) pipeDetached(pp *peerPipe) {
	p.mu.Lock()
	delete(p.subs, pp)
	p.mu.Unlock()
}

// consumeControl 在 I/O 唤醒时消费订阅控制帧
//
// 返回 false：PUB 的入站管道永不进入应用接收队列。
func (p *Pub) consumeControl(pp *peerPipe) bool {
	for {
		m, ok := pp.end.Dequeue()
		if !ok {
			pp.end.Flush()
			return false
		}
		p.applyControl(pp, m)
	}
}

func (p *Pub) applyControl(pp *peerPipe, m *types.Message) {
	if len(m.Frames) == 0 || len(m.Frames[0]) == 0 {
		return
	}
	frame := m.Frames[0]
	p.mu.Lock()
	defer p.mu.Unlock()
	t := p.subs[pp]
	if t == nil {
		return
	}
	switch frame[0] {
	case engine.SubscribeMarker:
		t.Add(frame[1:])
	case engine.UnsubscribeMarker:
		t.Remove(frame[1:])
	}
}

// Send 发布一条消息，首帧为主题
func (p *Pub) Send(_ context.Context, msg *types.Message) error {
	if msg == nil || len(msg.Frames) == 0 {
		return types.ErrEmptyMessage
	}
	p.Base.mu.Lock()
	if p.Base.closed {
		p.Base.mu.Unlock()
		return types.ErrSocketClosed
	}
	p.Base.mu.Unlock()

	topic := msg.Frames[0]
	for _, pp := range p.snapshotPipes() {
		p.mu.Lock()
		t := p.subs[pp]
		match := t != nil && t.Match(topic)
		p.mu.Unlock()
		if !match {
			continue
		}
		if err := pp.end.TryEnqueue(msg.Clone()); err != nil {
			// 满额或已断开的订阅者直接丢
			p.mtx.MessagesDropped.Inc()
		}
	}
	return nil
}

// TrySend 与 Send 等价，发布从不阻塞
func (p *Pub) TrySend(msg *types.Message) error {
	return p.Send(context.Background(), msg)
}

// Recv 发布者不支持接收
func (p *Pub) Recv(context.Context) (*types.Message, error) {
	return nil, types.ErrNotSupported
}

// TryRecv 发布者不支持接收
func (p *Pub) TryRecv() (*types.Message, error) {
	return nil, types.ErrNotSupported
}
