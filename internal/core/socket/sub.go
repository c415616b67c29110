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
//                              SUB
// ============================================================================

// Sub 订阅者套接字
//
// 订阅状态一式两份：本地订阅树做接收过滤（防御发布端
// 控制帧尚未生效的窗口期），同时把订阅/退订作为控制帧
// 发给所有发布端。新管道挂接（含重连）时重放全部订阅。
type Sub struct {
	*Base

	mu     sync.Mutex
	filter *trie.Trie
	topics map[string]int // 前缀 → 订阅次数，重放用
}

var _ interfaces.SubSocket = (*Sub)(nil)

func newSub(b *Base) *Sub {
	s := &Sub{Base: b, filter: trie.New(), topics: make(map[string]int)}
	b.onAttach = s.pipeAttached
	return s
}

// pipeAttached 向新发布端重放当前全部订阅
func (s *Sub) pipeAttached(pp *peerPipe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for topic, n := range s.topics {
		for i := 0; i < n; i++ {
			_ = pp.end.TryEnqueue(controlMessage(engine.SubscribeMarker, []byte(topic)))
		}
	}
}

func controlMessage(marker byte, prefix []byte) *types.Message {
	frame := make([]byte, 0, len(prefix)+1)
	frame = append(frame, marker)
	frame = append(frame, prefix...)
	return types.NewMessage(frame)
}

// Subscribe 订阅主题前缀；空前缀订阅所有消息
func (s *Sub) Subscribe(prefix []byte) error {
	s.Base.mu.Lock()
	if s.Base.closed {
		s.Base.mu.Unlock()
		return types.ErrSocketClosed
	}
	s.Base.mu.Unlock()

	s.mu.Lock()
	s.filter.Add(prefix)
	s.topics[string(prefix)]++
	s.mu.Unlock()

	for _, pp := range s.snapshotPipes() {
		_ = pp.end.TryEnqueue(controlMessage(engine.SubscribeMarker, prefix))
	}
	return nil
}

// Unsubscribe 取消订阅主题前缀
//
// 未订阅过的前缀是空操作。
func (s *Sub) Unsubscribe(prefix []byte) error {
	s.Base.mu.Lock()
	if s.Base.closed {
		s.Base.mu.Unlock()
		return types.ErrSocketClosed
	}
	s.Base.mu.Unlock()

	s.mu.Lock()
	key := string(prefix)
	if s.topics[key] == 0 {
		s.mu.Unlock()
		return nil
	}
	s.topics[key]--
	if s.topics[key] == 0 {
		delete(s.topics, key)
	}
	s.filter.Remove(prefix)
	s.mu.Unlock()

	for _, pp := range s.snapshotPipes() {
		_ = pp.end.TryEnqueue(controlMessage(engine.UnsubscribeMarker, prefix))
	}
	return nil
}

// Recv 接收一条匹配订阅的消息
//
// 不匹配本地订阅树的消息被静默丢弃（发布端过滤生效前的残留）。
func (s *Sub) Recv(ctx context.Context) (*types.Message, error) {
	for {
		_, m, err := s.recvFrom(ctx)
		if err != nil {
			return nil, err
		}
		if s.matches(m) {
			return m, nil
		}
	}
}

// TryRecv 非阻塞接收
func (s *Sub) TryRecv() (*types.Message, error) {
	for {
		_, m, ok := s.popMessage()
		if !ok {
			return nil, types.ErrTimeout
		}
		if s.matches(m) {
			return m, nil
		}
	}
}

func (s *Sub) matches(m *types.Message) bool {
	if len(m.Frames) == 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter.Match(m.Frames[0])
}

// Send 订阅者不支持发送
func (s *Sub) Send(context.Context, *types.Message) error {
	return types.ErrNotSupported
}

// TrySend 订阅者不支持发送
func (s *Sub) TrySend(*types.Message) error {
	return types.ErrNotSupported
}
