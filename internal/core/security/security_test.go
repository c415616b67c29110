// Package security 认证机制测试
package security

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNull(t *testing.T) {
	m := NewNull()
	assert.Equal(t, "NULL", m.Name())
	assert.NoError(t, m.Handshake(context.Background(), nil, true))
	assert.NoError(t, m.Handshake(context.Background(), nil, false))
}

func TestPlain(t *testing.T) {
	run := func(t *testing.T, client, server *Plain) (clientErr, serverErr error) {
		t.Helper()
		c, s := net.Pipe()
		defer c.Close()
		defer s.Close()

		done := make(chan error, 1)
		go func() {
			done <- server.Handshake(context.Background(), s, true)
		}()
		clientErr = client.Handshake(context.Background(), c, false)
		serverErr = <-done
		return
	}

	t.Run("凭据通过", func(t *testing.T) {
		server := NewPlainServer(func(u, p string) bool {
			return u == "alice" && p == "secret"
		})
		cerr, serr := run(t, NewPlainClient("alice", "secret"), server)
		assert.NoError(t, cerr)
		assert.NoError(t, serr)
	})

	t.Run("凭据拒绝", func(t *testing.T) {
		server := NewPlainServer(func(u, p string) bool { return false })
		cerr, serr := run(t, NewPlainClient("alice", "wrong"), server)
		assert.ErrorIs(t, cerr, ErrAuthFailed)
		assert.ErrorIs(t, serr, ErrAuthFailed)
	})

	t.Run("服务端缺少校验回调", func(t *testing.T) {
		c, s := net.Pipe()
		defer c.Close()
		defer s.Close()

		err := NewPlainServer(nil).Handshake(context.Background(), s, true)
		assert.ErrorIs(t, err, ErrNoValidator)
	})

	t.Run("取消的上下文", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := NewPlainClient("a", "b").Handshake(ctx, nil, false)
		require.Error(t, err)
	})
}
