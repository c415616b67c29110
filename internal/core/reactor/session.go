package reactor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wiremq/go-wiremq/internal/core/engine"
	"github.com/wiremq/go-wiremq/internal/core/metrics"
	"github.com/wiremq/go-wiremq/internal/core/pipe"
	"github.com/wiremq/go-wiremq/pkg/interfaces"
	"github.com/wiremq/go-wiremq/pkg/lib/log"
	"github.com/wiremq/go-wiremq/pkg/types"
)

// handshakeTimeout 握手阶段的连接截止时长
const handshakeTimeout = 10 * time.Second

// readBufSize 读循环缓冲大小
const readBufSize = 64 << 10

// ============================================================================
//                              会话
// ============================================================================

// Session 一条活跃传输通道
//
// 握手成功后创建管道对并挂接到归属套接字，之后读写循环各占
// 一个 goroutine 驱动引擎编解码。任一循环出错即拆除整个会话。
type Session struct {
	id    string
	conn  interfaces.Conn
	owner Attacher
	eng   *engine.Engine
	mtx   *metrics.Collector

	pair *pipe.Pair
	end  *pipe.End // I/O 端

	done      chan struct{}
	closeOnce sync.Once
}

func newSession(conn interfaces.Conn, owner Attacher, mtx *metrics.Collector, maxFrame uint64) *Session {
	return &Session{
		id:    log.TruncateID(uuid.NewString(), 8),
		conn:  conn,
		owner: owner,
		mtx:   mtx,
		eng: engine.New(engine.Config{
			Pattern:      owner.Pattern(),
			Identity:     owner.Identity(),
			Mechanism:    owner.Security(),
			MaxFrameSize: maxFrame,
		}),
		done: make(chan struct{}),
	}
}

// Close 关闭会话
//
// 关闭底层连接以解除读写循环的阻塞，幂等。
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

// run 执行会话全生命周期，返回时会话已完全拆除
//
// 正常拆除（归属方关闭管道且排空完毕，或 Close 被调用）返回 nil，
// 其余返回值为传输或协议错误。
func (s *Session) run(ctx context.Context, server bool) error {
	deadline := time.Now().Add(handshakeTimeout)
	_ = s.conn.SetReadDeadline(deadline)
	_ = s.conn.SetWriteDeadline(deadline)

	peer, err := s.eng.Handshake(ctx, s.conn, server)
	if err != nil {
		s.mtx.HandshakeFailures.Inc()
		s.Close()
		return err
	}
	_ = s.conn.SetReadDeadline(time.Time{})
	_ = s.conn.SetWriteDeadline(time.Time{})

	hwm, lwm := s.owner.PipeLimits()
	pair, err := pipe.NewPair(hwm, lwm)
	if err != nil {
		s.Close()
		return err
	}
	s.pair = pair
	s.end = pair.IOEnd()
	s.owner.Attach(pair.SocketEnd(), peer)
	s.mtx.SessionsActive.Inc()

	logger.Debug("会话已建立",
		"session", s.id,
		"remote", s.conn.RemoteAddr().String(),
		"peerPattern", peer.Pattern.String(),
		"server", server)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(s.readLoop)
	g.Go(s.writeLoop)
	go func() {
		<-gctx.Done()
		s.Close()
	}()

	err = g.Wait()
	s.owner.Detach(pair.SocketEnd())
	pair.Close()
	s.mtx.SessionsActive.Dec()
	s.Close()

	if errors.Is(err, ErrSessionClosed) {
		return nil
	}
	return err
}

// ============================================================================
//                              读循环
// ============================================================================

// readLoop 从连接读字节、喂入引擎、投递入站管道
//
// 入站管道满时停读，待套接字侧归还额度后恢复——
// 背压经由 TCP 接收窗口传导到对端。
func (s *Session) readLoop() error {
	buf := make([]byte, readBufSize)
	for {
		n, err := s.conn.Read(buf)
		if n > 0 {
			s.mtx.BytesReceived.Add(float64(n))
			msgs, ferr := s.eng.Feed(buf[:n])
			for _, m := range msgs {
				if derr := s.deliver(m); derr != nil {
					return derr
				}
			}
			if ferr != nil {
				return ferr
			}
			if len(msgs) > 0 {
				s.mtx.MessagesReceived.WithLabelValues(s.owner.Pattern().String()).Add(float64(len(msgs)))
			}
		}
		if err != nil {
			return err
		}
	}
}

func (s *Session) deliver(m *types.Message) error {
	for {
		err := s.end.TryEnqueue(m)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, types.ErrPipeFull):
			select {
			case <-s.end.Writable():
			case <-s.done:
				return ErrSessionClosed
			}
		default:
			return err
		}
	}
}

// ============================================================================
//                              写循环
// ============================================================================

// writeLoop 从出站管道取消息、引擎编码、写入连接
//
// 管道被归属方关闭后先排空剩余消息再退出（linger 语义由
// 套接字通过延迟关闭管道实现）。
func (s *Session) writeLoop() error {
	for {
		if m, ok := s.end.Dequeue(); ok {
			if err := s.writeMessage(m); err != nil {
				return err
			}
			continue
		}
		// 睡前归还全部读额度，避免滞回扣住对端写者
		s.end.Flush()
		select {
		case <-s.end.Readable():
		case <-s.end.Done():
			if err := s.drainOutbound(); err != nil {
				return err
			}
			return ErrSessionClosed
		case <-s.done:
			return ErrSessionClosed
		}
	}
}

func (s *Session) drainOutbound() error {
	for {
		m, ok := s.end.Dequeue()
		if !ok {
			s.end.Flush()
			return nil
		}
		if err := s.writeMessage(m); err != nil {
			return err
		}
	}
}

func (s *Session) writeMessage(m *types.Message) error {
	data := s.eng.EncodeMessage(m)
	if _, err := s.conn.Write(data); err != nil {
		return err
	}
	s.mtx.BytesSent.Add(float64(len(data)))
	s.mtx.MessagesSent.WithLabelValues(s.owner.Pattern().String()).Inc()
	return nil
}
