// Package engine 握手与活跃期测试
package engine

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wiremq/go-wiremq/internal/core/security"
	"github.com/wiremq/go-wiremq/pkg/interfaces"
	"github.com/wiremq/go-wiremq/pkg/types"
)

// tcpPair 建立一对本机 TCP 连接（net.Pipe 无缓冲，问候并发写会互锁）
func tcpPair(t *testing.T) (client, server net.Conn) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := l.Accept()
		if err == nil {
			accepted <- c
		}
	}()

	client, err = net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	server = <-accepted
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	return client, server
}

func handshakePair(t *testing.T, ccfg, scfg Config) (cerr, serr error, ce, se *Engine) {
	t.Helper()
	cc, sc := tcpPair(t)
	_ = cc.SetDeadline(time.Now().Add(2 * time.Second))
	_ = sc.SetDeadline(time.Now().Add(2 * time.Second))

	ce, se = New(ccfg), New(scfg)
	done := make(chan error, 1)
	go func() {
		_, err := se.Handshake(context.Background(), sc.(interfaces.Conn), true)
		done <- err
	}()
	_, cerr = ce.Handshake(context.Background(), cc.(interfaces.Conn), false)
	serr = <-done
	return
}

func TestHandshake(t *testing.T) {
	t.Run("PUB 对 SUB 成功", func(t *testing.T) {
		cerr, serr, ce, se := handshakePair(t,
			Config{Pattern: types.PatternSub, Mechanism: security.NewNull()},
			Config{Pattern: types.PatternPub, Mechanism: security.NewNull()},
		)
		require.NoError(t, cerr)
		require.NoError(t, serr)
		assert.True(t, ce.Active())
		assert.True(t, se.Active())
		assert.Equal(t, types.PatternPub, ce.Peer().Pattern)
		assert.Equal(t, types.PatternSub, se.Peer().Pattern)
	})

	t.Run("DEALER 标识传递", func(t *testing.T) {
		cerr, serr, _, se := handshakePair(t,
			Config{Pattern: types.PatternDealer, Identity: types.Identity("worker-1"), Mechanism: security.NewNull()},
			Config{Pattern: types.PatternRouter, Mechanism: security.NewNull()},
		)
		require.NoError(t, cerr)
		require.NoError(t, serr)
		assert.Equal(t, "worker-1", se.Peer().Identity.String())
	})

	t.Run("模式不兼容", func(t *testing.T) {
		cerr, serr, _, _ := handshakePair(t,
			Config{Pattern: types.PatternPub, Mechanism: security.NewNull()},
			Config{Pattern: types.PatternPub, Mechanism: security.NewNull()},
		)
		// 双方各自校验，至少一端报模式不匹配；另一端可能先收到 ERROR 命令
		require.Error(t, cerr)
		require.Error(t, serr)
		mismatch := func(err error) bool {
			return errors.Is(err, ErrPatternMismatch) || errors.Is(err, ErrPeerError) ||
				errors.Is(err, net.ErrClosed)
		}
		assert.True(t, mismatch(cerr), "client err: %v", cerr)
		assert.True(t, mismatch(serr), "server err: %v", serr)
	})

	t.Run("机制不匹配", func(t *testing.T) {
		cerr, serr, _, _ := handshakePair(t,
			Config{Pattern: types.PatternReq, Mechanism: security.NewPlainClient("u", "p")},
			Config{Pattern: types.PatternRep, Mechanism: security.NewNull()},
		)
		assert.ErrorIs(t, cerr, ErrMechanismMismatch)
		assert.ErrorIs(t, serr, ErrMechanismMismatch)
	})

	t.Run("PLAIN 认证通过", func(t *testing.T) {
		cerr, serr, _, _ := handshakePair(t,
			Config{Pattern: types.PatternReq, Mechanism: security.NewPlainClient("alice", "secret")},
			Config{Pattern: types.PatternRep, Mechanism: security.NewPlainServer(
				func(u, p string) bool { return u == "alice" && p == "secret" })},
		)
		assert.NoError(t, cerr)
		assert.NoError(t, serr)
	})

	t.Run("PLAIN 认证失败", func(t *testing.T) {
		cerr, serr, _, _ := handshakePair(t,
			Config{Pattern: types.PatternReq, Mechanism: security.NewPlainClient("mallory", "guess")},
			Config{Pattern: types.PatternRep, Mechanism: security.NewPlainServer(
				func(u, p string) bool { return false })},
		)
		require.Error(t, cerr)
		require.Error(t, serr)
	})

	t.Run("对端非本协议", func(t *testing.T) {
		cc, sc := tcpPair(t)
		_ = cc.SetDeadline(time.Now().Add(2 * time.Second))

		go func() {
			// 对端回写任意垃圾
			_, _ = sc.Write([]byte("HTTP/1.1 400 Bad Request\r\n\r\n padding padding"))
		}()

		e := New(Config{Pattern: types.PatternReq, Mechanism: security.NewNull()})
		_, err := e.Handshake(context.Background(), cc.(interfaces.Conn), false)
		assert.ErrorIs(t, err, ErrBadGreeting)
	})
}

func TestEngineActivePeriod(t *testing.T) {
	t.Run("编码解码往返", func(t *testing.T) {
		sender := New(Config{Pattern: types.PatternPub, Mechanism: security.NewNull()})
		receiver := New(Config{Pattern: types.PatternSub, Mechanism: security.NewNull()})

		m := types.NewMessageFrames([]byte("weather/oslo"), []byte("-4C"))
		msgs, err := receiver.Feed(sender.EncodeMessage(m))
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, "weather/oslo", string(msgs[0].Frames[0]))
		assert.Equal(t, "-4C", string(msgs[0].Frames[1]))
	})

	t.Run("活跃期 ERROR 命令致命", func(t *testing.T) {
		e := New(Config{Pattern: types.PatternSub, Mechanism: security.NewNull()})
		wire := AppendCommand(nil, &Command{Name: CmdError, Body: []byte("going away")})
		_, err := e.Feed(wire)
		assert.ErrorIs(t, err, ErrPeerError)
	})
}
