// Package inproc 进程内传输测试
package inproc

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInprocDialListen(t *testing.T) {
	t.Run("连接与数据往返", func(t *testing.T) {
		tr := NewTransport()
		defer tr.Close()

		l, err := tr.Listen("pair-1")
		require.NoError(t, err)

		type result struct {
			data []byte
			err  error
		}
		got := make(chan result, 1)
		go func() {
			sc, err := l.Accept()
			if err != nil {
				got <- result{err: err}
				return
			}
			buf := make([]byte, 16)
			n, err := sc.Read(buf)
			got <- result{data: buf[:n], err: err}
		}()

		c, err := tr.Dial(context.Background(), "pair-1")
		require.NoError(t, err)
		_, err = c.Write([]byte("ping"))
		require.NoError(t, err)

		r := <-got
		require.NoError(t, r.err)
		assert.Equal(t, "ping", string(r.data))
	})

	t.Run("未监听名称 Dial 失败", func(t *testing.T) {
		tr := NewTransport()
		defer tr.Close()

		_, err := tr.Dial(context.Background(), "nobody")
		assert.ErrorIs(t, err, ErrNotBound)
	})

	t.Run("名称冲突", func(t *testing.T) {
		tr := NewTransport()
		defer tr.Close()

		_, err := tr.Listen("dup")
		require.NoError(t, err)
		_, err = tr.Listen("dup")
		assert.ErrorIs(t, err, ErrNameInUse)
	})

	t.Run("命名空间隔离", func(t *testing.T) {
		tr1, tr2 := NewTransport(), NewTransport()
		defer tr1.Close()
		defer tr2.Close()

		_, err := tr1.Listen("shared")
		require.NoError(t, err)

		_, err = tr2.Dial(context.Background(), "shared")
		assert.ErrorIs(t, err, ErrNotBound)
	})

	t.Run("关闭监听器释放名称", func(t *testing.T) {
		tr := NewTransport()
		defer tr.Close()

		l, err := tr.Listen("transient")
		require.NoError(t, err)
		require.NoError(t, l.Close())

		_, err = tr.Listen("transient")
		assert.NoError(t, err)
	})
}

func TestInprocConn(t *testing.T) {
	t.Run("并发双向写不互锁", func(t *testing.T) {
		// 问候交换时两端同时先写后读，通道缓冲必须吸收
		c, s := newPair("x")
		defer c.Close()

		done := make(chan struct{})
		go func() {
			_, _ = s.Write([]byte("server-greeting"))
			buf := make([]byte, 32)
			_, _ = io.ReadAtLeast(s, buf, 15)
			close(done)
		}()

		_, err := c.Write([]byte("client-greeting"))
		require.NoError(t, err)
		buf := make([]byte, 32)
		_, err = io.ReadAtLeast(c, buf, 15)
		require.NoError(t, err)

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("对端未完成问候交换")
		}
	})

	t.Run("关闭后排空再 EOF", func(t *testing.T) {
		c, s := newPair("x")
		_, err := c.Write([]byte("tail"))
		require.NoError(t, err)
		require.NoError(t, c.Close())

		buf := make([]byte, 8)
		n, err := s.Read(buf)
		require.NoError(t, err)
		assert.Equal(t, "tail", string(buf[:n]))

		_, err = s.Read(buf)
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("读截止时间", func(t *testing.T) {
		c, _ := newPair("x")
		defer c.Close()

		require.NoError(t, c.SetReadDeadline(time.Now().Add(20*time.Millisecond)))
		buf := make([]byte, 8)
		_, err := c.Read(buf)
		assert.ErrorIs(t, err, ErrDeadline)
	})
}
