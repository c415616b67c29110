package wiremq

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/wiremq/go-wiremq/internal/core/metrics"
	"github.com/wiremq/go-wiremq/internal/core/reactor"
	"github.com/wiremq/go-wiremq/internal/core/transport"
)

// buildFxApp 构建 Fx 应用
//
// 组装顺序（按依赖）：
//  1. 指标：注册表与收集器
//  2. 传输层：tcp / ipc / inproc / ws 注册表
//  3. 反应器：I/O 线程池与连接管理
//
// fx 自身的事件日志静音，库的运行日志走 pkg/lib/log。
func buildFxApp(cfg *contextConfig, ctx *Context) *fx.App {
	modules := []fx.Option{
		fx.Supply(reactor.Config{
			IOThreads:    cfg.ioThreads,
			MaxFrameSize: cfg.maxFrameSize,
		}),

		transport.Module(),
		reactor.Module(),
	}

	// 指标：外部注册表优先，否则用模块自建的
	if cfg.gatherer != nil {
		modules = append(modules,
			fx.Supply(cfg.gatherer),
			fx.Provide(metrics.ProvideCollector),
		)
	} else {
		modules = append(modules, metrics.Module())
	}

	// 时钟：外部注入优先（覆盖 reactor.ProvideClock）
	if cfg.clk != nil {
		modules = append(modules, fx.Decorate(func(clock.Clock) clock.Clock {
			return cfg.clk
		}))
	}

	modules = append(modules, cfg.extraFx...)
	modules = append(modules,
		fx.Populate(&ctx.reactor, &ctx.collector, &ctx.clk),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)
	return fx.New(modules...)
}
