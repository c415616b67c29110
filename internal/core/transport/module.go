package transport

import (
	"context"

	"go.uber.org/fx"

	"github.com/wiremq/go-wiremq/internal/core/transport/inproc"
	"github.com/wiremq/go-wiremq/internal/core/transport/ipc"
	"github.com/wiremq/go-wiremq/internal/core/transport/tcp"
	"github.com/wiremq/go-wiremq/internal/core/transport/ws"
	"github.com/wiremq/go-wiremq/pkg/interfaces"
)

// Module 返回 Fx 模块
//
// 提供注册好内建传输（tcp、ipc、inproc、ws）的注册表；
// inproc 命名空间随注册表实例（即 Context）隔离。
func Module() fx.Option {
	return fx.Module("transport",
		fx.Provide(ProvideRegistry),
	)
}

// ProvideRegistry 提供传输注册表（依赖注入）
func ProvideRegistry(lc fx.Lifecycle) (*Registry, error) {
	r := NewRegistry()

	builtins := []interfaces.Transport{
		tcp.NewTransport(),
		ipc.NewTransport(),
		inproc.NewTransport(),
		ws.NewTransport(),
	}
	for _, t := range builtins {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return r.Close()
		},
	})
	return r, nil
}
