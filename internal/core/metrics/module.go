package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Module 返回指标模块的 fx 配置
func Module() fx.Option {
	return fx.Module("metrics",
		fx.Provide(ProvideRegistry),
		fx.Provide(ProvideCollector),
	)
}

// ProvideRegistry 创建独立的指标注册表。
// 不使用全局 DefaultRegisterer，避免同进程多个 Context 注册冲突。
func ProvideRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// CollectorParams 收集器依赖参数
type CollectorParams struct {
	fx.In

	Registry *prometheus.Registry
}

// ProvideCollector 创建指标收集器
func ProvideCollector(params CollectorParams) *Collector {
	return NewCollector(params.Registry)
}
