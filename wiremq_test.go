package wiremq

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wiremq/go-wiremq/internal/core/reactor"
)

var addrSeq atomic.Uint64

func nextInproc() string {
	return fmt.Sprintf("inproc://it-%d", addrSeq.Add(1))
}

func newContext(t *testing.T, opts ...Option) *Context {
	t.Helper()
	c, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// boundTCPAddr 读取套接字第一个绑定端点的实际地址
func boundTCPAddr(t *testing.T, s Socket) string {
	t.Helper()
	eps := s.(interface{ Endpoints() []*reactor.Endpoint }).Endpoints()
	require.NotEmpty(t, eps)
	return "tcp://" + eps[0].ListenerAddr().String()
}

// ============================================================================
//                              端到端
// ============================================================================

func TestPubSubOverTCP(t *testing.T) {
	c := newContext(t)

	pub, err := c.NewSocket(Pub, WithLinger(0))
	require.NoError(t, err)
	require.NoError(t, pub.Bind("tcp://127.0.0.1:0"))
	addr := boundTCPAddr(t, pub)

	sub, err := c.NewSocket(Sub, WithLinger(0))
	require.NoError(t, err)
	require.NoError(t, sub.Connect(addr))
	require.NoError(t, sub.(SubSocket).Subscribe([]byte("weather")))

	// 订阅控制帧到达发布端需要时间，重发覆盖窗口
	var got *Message
	require.Eventually(t, func() bool {
		require.NoError(t, pub.Send(context.Background(),
			NewMessageFrames([]byte("weather/oslo"), []byte("-3C"))))
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		m, err := sub.Recv(ctx)
		if err != nil {
			return false
		}
		got = m
		return true
	}, 5*time.Second, 10*time.Millisecond)

	require.Len(t, got.Frames, 2)
	assert.Equal(t, "weather/oslo", string(got.Frames[0]))
	assert.Equal(t, "-3C", string(got.Frames[1]))

	// 不匹配主题不可达；队列中只可能有 weather 残留
	require.NoError(t, pub.Send(context.Background(),
		NewMessageFrames([]byte("sports/final"), []byte("2:1"))))
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
		m, err := sub.Recv(ctx)
		cancel()
		if err != nil {
			break
		}
		assert.Equal(t, "weather/oslo", string(m.Frames[0]))
	}
}

func TestReqRepOverTCP(t *testing.T) {
	c := newContext(t)

	rep, err := c.NewSocket(Rep, WithLinger(0))
	require.NoError(t, err)
	require.NoError(t, rep.Bind("tcp://127.0.0.1:0"))
	addr := boundTCPAddr(t, rep)

	req, err := c.NewSocket(Req, WithLinger(0))
	require.NoError(t, err)
	require.NoError(t, req.Connect(addr))

	go func() {
		ctx := context.Background()
		for {
			m, err := rep.Recv(ctx)
			if err != nil {
				return
			}
			if rep.Send(ctx, NewMessageFrames(append([]byte("re:"), m.Frames[0]...))) != nil {
				return
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := 0; i < 3; i++ {
		q := fmt.Sprintf("q%d", i)
		require.NoError(t, req.Send(ctx, NewMessageString(q)))
		m, err := req.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, "re:"+q, string(m.Frames[0]))
	}
}

// ============================================================================
//                              重连
// ============================================================================

func TestConnectBeforeBind(t *testing.T) {
	c := newContext(t)
	addr := nextInproc()

	// 先连接：拨号失败进入退避重试
	dealer, err := c.NewSocket(Dealer, WithLinger(0),
		WithReconnectInterval(5*time.Millisecond, 50*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, dealer.Connect(addr))

	// block 策略下发送会等到会话建立，放到后台
	sent := make(chan error, 1)
	go func() {
		sent <- dealer.Send(context.Background(), NewMessageString("early"))
	}()
	time.Sleep(30 * time.Millisecond)

	// 后绑定：重连循环应自动建立会话并送达积压消息
	peer, err := c.NewSocket(Dealer, WithLinger(0))
	require.NoError(t, err)
	require.NoError(t, peer.Bind(addr))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m, err := peer.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "early", string(m.Frames[0]))
	require.NoError(t, <-sent)
}

func TestReconnectAfterPeerRestart(t *testing.T) {
	c := newContext(t)
	addr := nextInproc()

	server, err := c.NewSocket(Dealer, WithLinger(0))
	require.NoError(t, err)
	require.NoError(t, server.Bind(addr))

	client, err := c.NewSocket(Dealer, WithLinger(time.Second),
		WithSendTimeout(50*time.Millisecond),
		WithReconnectInterval(5*time.Millisecond, 50*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, client.Connect(addr))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 会话异步建立，首次发送重试到成功
	require.Eventually(t, func() bool {
		return client.Send(ctx, NewMessageString("one")) == nil
	}, 5*time.Second, 10*time.Millisecond)
	m, err := server.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "one", string(m.Frames[0]))

	// 对端重启
	require.NoError(t, server.Close())
	server2, err := c.NewSocket(Dealer, WithLinger(0))
	require.NoError(t, err)
	require.NoError(t, server2.Bind(addr))

	// 退避窗口内重连；重连期间的消息至多一次交付，
	// 发送侧重试直到新会话接走
	got := make(chan *Message, 1)
	go func() {
		if m, err := server2.Recv(ctx); err == nil {
			got <- m
		}
	}()
	require.Eventually(t, func() bool {
		_ = client.Send(ctx, NewMessageString("two"))
		select {
		case m := <-got:
			assert.Equal(t, "two", string(m.Frames[0]))
			return true
		default:
			return false
		}
	}, 8*time.Second, 20*time.Millisecond)
}

// ============================================================================
//                              生命周期
// ============================================================================

func TestTerminateUnblocksRecv(t *testing.T) {
	c := newContext(t)

	s, err := c.NewSocket(Dealer, WithLinger(0))
	require.NoError(t, err)

	unblocked := make(chan error, 1)
	go func() {
		_, err := s.Recv(context.Background())
		unblocked <- err
	}()
	time.Sleep(30 * time.Millisecond)

	require.NoError(t, c.Terminate(context.Background()))

	select {
	case err := <-unblocked:
		assert.ErrorIs(t, err, ErrSocketClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Terminate 未唤醒阻塞中的 Recv")
	}

	// 终止后拒绝新建套接字
	_, err = c.NewSocket(Pub)
	assert.ErrorIs(t, err, ErrContextClosed)

	// 幂等
	assert.NoError(t, c.Terminate(context.Background()))
}

func TestContextIsolation(t *testing.T) {
	// 两个 Context 的 inproc 命名空间互不可见
	c1 := newContext(t)
	c2 := newContext(t)
	addr := nextInproc()

	s1, err := c1.NewSocket(Dealer, WithLinger(0))
	require.NoError(t, err)
	require.NoError(t, s1.Bind(addr))

	s2, err := c2.NewSocket(Dealer, WithLinger(0), WithBackpressure(Drop),
		WithReconnectInterval(5*time.Millisecond, 20*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, s2.Connect(addr))
	require.NoError(t, s2.Send(context.Background(), NewMessageString("x")))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err = s1.Recv(ctx)
	assert.Error(t, err, "跨 Context 的 inproc 不应互通")
}

// ============================================================================
//                              指标与认证
// ============================================================================

func TestExternalMetricsRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := newContext(t, WithMetricsRegistry(reg))

	server, err := c.NewSocket(Dealer, WithLinger(0))
	require.NoError(t, err)
	require.NoError(t, server.Bind("tcp://127.0.0.1:0"))

	client, err := c.NewSocket(Dealer, WithLinger(0))
	require.NoError(t, err)
	require.NoError(t, client.Connect(boundTCPAddr(t, server)))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, client.Send(ctx, NewMessageString("counted")))
	_, err = server.Recv(ctx)
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["wiremq_sessions_active"], "应有会话指标")
	assert.True(t, names["wiremq_messages_sent_total"], "应有发送指标")
}

func TestPlainAuth(t *testing.T) {
	t.Run("凭据正确可通信", func(t *testing.T) {
		c := newContext(t)
		addr := nextInproc()

		server, err := c.NewSocket(Dealer, WithLinger(0),
			WithPlainServer(func(user, pass string) bool {
				return user == "svc" && pass == "secret"
			}))
		require.NoError(t, err)
		require.NoError(t, server.Bind(addr))

		client, err := c.NewSocket(Dealer, WithLinger(0),
			WithPlainClient("svc", "secret"))
		require.NoError(t, err)
		require.NoError(t, client.Connect(addr))

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, client.Send(ctx, NewMessageString("authed")))
		m, err := server.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, "authed", string(m.Frames[0]))
	})

	t.Run("凭据错误无法通信", func(t *testing.T) {
		c := newContext(t)
		addr := nextInproc()

		server, err := c.NewSocket(Dealer, WithLinger(0),
			WithPlainServer(func(user, pass string) bool { return false }))
		require.NoError(t, err)
		require.NoError(t, server.Bind(addr))

		client, err := c.NewSocket(Dealer, WithLinger(0), WithBackpressure(Drop),
			WithPlainClient("svc", "wrong"))
		require.NoError(t, err)
		require.NoError(t, client.Connect(addr))
		require.NoError(t, client.Send(context.Background(), NewMessageString("denied")))

		ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
		defer cancel()
		_, err = server.Recv(ctx)
		assert.Error(t, err)
	})
}
