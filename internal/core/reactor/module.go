package reactor

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/wiremq/go-wiremq/internal/core/metrics"
	"github.com/wiremq/go-wiremq/internal/core/transport"
)

// Module 返回反应器模块的 fx 配置
func Module() fx.Option {
	return fx.Module("reactor",
		fx.Provide(ProvideClock),
		fx.Provide(ProvideReactor),
	)
}

// ProvideClock 提供真实时钟；测试可用 fx.Replace 注入 clock.Mock
func ProvideClock() clock.Clock {
	return clock.New()
}

// Params 反应器依赖参数
type Params struct {
	fx.In

	Config    Config
	Registry  *transport.Registry
	Collector *metrics.Collector
	Clock     clock.Clock
}

// ProvideReactor 创建反应器并挂接生命周期
func ProvideReactor(lc fx.Lifecycle, params Params) *Reactor {
	r := New(params.Config, params.Registry, params.Collector, params.Clock)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return r.Close()
		},
	})
	return r
}
