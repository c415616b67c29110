package socket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wiremq/go-wiremq/pkg/types"
)

func TestReqRep(t *testing.T) {
	t.Run("一问一答", func(t *testing.T) {
		g := newRig(t)
		rep, req := g.pair(types.PatternRep, types.PatternReq)

		done := make(chan struct{})
		go func() {
			defer close(done)
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			m, err := rep.Recv(ctx)
			require.NoError(t, err)
			assert.Equal(t, "what time", string(m.Frames[0]))
			require.NoError(t, rep.Send(ctx, types.NewMessageString("noon")))
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		require.NoError(t, req.Send(ctx, types.NewMessageString("what time")))
		reply, err := req.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, "noon", string(reply.Frames[0]))
		<-done
	})

	t.Run("多轮交替", func(t *testing.T) {
		g := newRig(t)
		rep, req := g.pair(types.PatternRep, types.PatternReq)

		go func() {
			ctx := context.Background()
			for i := 0; i < 5; i++ {
				m, err := rep.Recv(ctx)
				if err != nil {
					return
				}
				_ = rep.Send(ctx, types.NewMessageFrames(append([]byte("echo:"), m.Frames[0]...)))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, q := range []string{"a", "b", "c", "d", "e"} {
			require.NoError(t, req.Send(ctx, types.NewMessageString(q)))
			reply, err := req.Recv(ctx)
			require.NoError(t, err)
			assert.Equal(t, "echo:"+q, string(reply.Frames[0]))
		}
	})

	t.Run("连续两次请求违反状态机", func(t *testing.T) {
		g := newRig(t)
		_, req := g.pair(types.PatternRep, types.PatternReq)

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		require.NoError(t, req.Send(ctx, types.NewMessageString("first")))
		err := req.Send(ctx, types.NewMessageString("second"))
		assert.ErrorIs(t, err, types.ErrInvalidState)
	})

	t.Run("未发请求先收应答违反状态机", func(t *testing.T) {
		g := newRig(t)
		req := g.socket(types.PatternReq)

		_, err := req.Recv(context.Background())
		assert.ErrorIs(t, err, types.ErrInvalidState)
		_, err = req.TryRecv()
		assert.ErrorIs(t, err, types.ErrInvalidState)
	})

	t.Run("应答方未收先答违反状态机", func(t *testing.T) {
		g := newRig(t)
		rep := g.socket(types.PatternRep)

		err := rep.Send(context.Background(), types.NewMessageString("unsolicited"))
		assert.ErrorIs(t, err, types.ErrInvalidState)
	})

	t.Run("应答方连续两次接收违反状态机", func(t *testing.T) {
		g := newRig(t)
		rep, req := g.pair(types.PatternRep, types.PatternReq)

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		require.NoError(t, req.Send(ctx, types.NewMessageString("q")))
		_, err := rep.Recv(ctx)
		require.NoError(t, err)

		_, err = rep.Recv(ctx)
		assert.ErrorIs(t, err, types.ErrInvalidState)
	})

	t.Run("应答保持帧边界", func(t *testing.T) {
		g := newRig(t)
		rep, req := g.pair(types.PatternRep, types.PatternReq)

		go func() {
			ctx := context.Background()
			m, err := rep.Recv(ctx)
			if err != nil {
				return
			}
			_ = rep.Send(ctx, types.NewMessageFrames(m.Frames[1], m.Frames[0]))
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		require.NoError(t, req.Send(ctx, types.NewMessageFrames([]byte("one"), []byte("two"))))
		reply, err := req.Recv(ctx)
		require.NoError(t, err)
		require.Len(t, reply.Frames, 2)
		assert.Equal(t, "two", string(reply.Frames[0]))
		assert.Equal(t, "one", string(reply.Frames[1]))
	})
}
