package socket

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wiremq/go-wiremq/pkg/types"
)

func TestRouterDealer(t *testing.T) {
	t.Run("标识往返", func(t *testing.T) {
		g := newRig(t)
		addr := inprocAddr()
		router := g.socket(types.PatternRouter)
		require.NoError(t, router.Bind(addr))

		dealer := g.socket(types.PatternDealer, func(o *Options) {
			o.Identity = types.Identity("worker-1")
		})
		require.NoError(t, dealer.Connect(addr))

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		require.NoError(t, dealer.Send(ctx, types.NewMessageString("task-result")))

		m, err := router.Recv(ctx)
		require.NoError(t, err)
		require.Len(t, m.Frames, 2)
		assert.Equal(t, "worker-1", string(m.Frames[0]))
		assert.Equal(t, "task-result", string(m.Frames[1]))

		// 用收到的标识帧原路回发
		require.NoError(t, router.Send(ctx,
			types.NewMessageFrames(m.Frames[0], []byte("ack"))))
		reply, err := dealer.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, "ack", string(reply.Frames[0]))
	})

	t.Run("未知标识", func(t *testing.T) {
		g := newRig(t)
		router := g.socket(types.PatternRouter)
		require.NoError(t, router.Bind(inprocAddr()))

		err := router.Send(context.Background(),
			types.NewMessageFrames([]byte("ghost"), []byte("hello")))
		assert.ErrorIs(t, err, types.ErrUnknownPeer)
	})

	t.Run("断开后的标识被拒绝", func(t *testing.T) {
		g := newRig(t)
		addr := inprocAddr()
		router := g.socket(types.PatternRouter)
		require.NoError(t, router.Bind(addr))

		dealer := g.socket(types.PatternDealer, func(o *Options) {
			o.Identity = types.Identity("transient")
		})
		require.NoError(t, dealer.Connect(addr))

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		require.NoError(t, dealer.Send(ctx, types.NewMessageString("hi")))
		_, err := router.Recv(ctx)
		require.NoError(t, err)

		require.NoError(t, dealer.Close())
		require.Eventually(t, func() bool {
			err := router.TrySend(types.NewMessageFrames([]byte("transient"), []byte("late")))
			return err != nil
		}, 3*time.Second, 10*time.Millisecond)
	})

	t.Run("路由消息至少两帧", func(t *testing.T) {
		g := newRig(t)
		router := g.socket(types.PatternRouter)

		err := router.Send(context.Background(), types.NewMessageString("only-identity"))
		assert.ErrorIs(t, err, types.ErrEmptyMessage)
	})

	t.Run("未通告标识时本地生成", func(t *testing.T) {
		g := newRig(t)
		addr := inprocAddr()
		router := g.socket(types.PatternRouter)
		require.NoError(t, router.Bind(addr))

		dealer := g.socket(types.PatternDealer) // 不设置标识
		require.NoError(t, dealer.Connect(addr))

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		require.NoError(t, dealer.Send(ctx, types.NewMessageString("anon")))
		m, err := router.Recv(ctx)
		require.NoError(t, err)
		require.Len(t, m.Frames, 2)
		assert.NotEmpty(t, m.Frames[0], "应有生成的标识帧")

		// 生成的标识同样可路由
		require.NoError(t, router.Send(ctx, types.NewMessageFrames(m.Frames[0], []byte("pong"))))
		reply, err := dealer.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, "pong", string(reply.Frames[0]))
	})

	t.Run("DEALER 轮转负载均衡", func(t *testing.T) {
		g := newRig(t)
		addr := inprocAddr()
		dealer := g.socket(types.PatternDealer)
		require.NoError(t, dealer.Bind(addr))

		repA := g.socket(types.PatternRep)
		require.NoError(t, repA.Connect(addr))
		repB := g.socket(types.PatternRep)
		require.NoError(t, repB.Connect(addr))

		// 等两条管道都挂接
		require.Eventually(t, func() bool {
			return len(dealer.(*Dealer).snapshotPipes()) == 2
		}, 3*time.Second, 10*time.Millisecond)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for i := 0; i < 4; i++ {
			require.NoError(t, dealer.Send(ctx,
				types.NewMessageFrames(nil, []byte(fmt.Sprintf("job-%d", i)))))
		}

		// 轮转分发：两个应答方各收到一半
		for _, rep := range []*Rep{repA.(*Rep), repB.(*Rep)} {
			for i := 0; i < 2; i++ {
				m, err := rep.Recv(ctx)
				require.NoError(t, err)
				assert.Contains(t, string(m.Frames[0]), "job-")
			}
		}
	})
}
