package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================================
// 指标收集器
// ============================================================================

// Collector 聚合消息层的全部指标
type Collector struct {
	// MessagesSent 按套接字模式统计已发送消息数
	MessagesSent *prometheus.CounterVec

	// MessagesReceived 按套接字模式统计已接收消息数
	MessagesReceived *prometheus.CounterVec

	// BytesSent 已写入传输层的字节数（含帧头）
	BytesSent prometheus.Counter

	// BytesReceived 已从传输层读出的字节数
	BytesReceived prometheus.Counter

	// MessagesDropped 因高水位丢弃的消息数
	MessagesDropped prometheus.Counter

	// SessionsActive 当前活跃会话数
	SessionsActive prometheus.Gauge

	// HandshakeFailures 握手失败次数
	HandshakeFailures prometheus.Counter

	// Reconnects 重连尝试次数
	Reconnects prometheus.Counter
}

// NewCollector 创建并注册指标收集器。
// reg 为 nil 时所有指标仍可正常更新，只是不会被任何 Registry 收集。
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		MessagesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wiremq",
			Name:      "messages_sent_total",
			Help:      "Messages queued for delivery, by socket pattern.",
		}, []string{"pattern"}),
		MessagesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wiremq",
			Name:      "messages_received_total",
			Help:      "Messages delivered to application receive queues, by socket pattern.",
		}, []string{"pattern"}),
		BytesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "wiremq",
			Name:      "bytes_sent_total",
			Help:      "Bytes written to transports, framing included.",
		}),
		BytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "wiremq",
			Name:      "bytes_received_total",
			Help:      "Bytes read from transports.",
		}),
		MessagesDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "wiremq",
			Name:      "messages_dropped_total",
			Help:      "Messages dropped because a pipe was at its high-water mark.",
		}),
		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "wiremq",
			Name:      "sessions_active",
			Help:      "Connected sessions that completed the handshake.",
		}),
		HandshakeFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "wiremq",
			Name:      "handshake_failures_total",
			Help:      "Connections torn down during greeting or READY exchange.",
		}),
		Reconnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "wiremq",
			Name:      "reconnects_total",
			Help:      "Reconnect attempts made by connecters.",
		}),
	}
}

// Nop 返回不挂接任何 Registry 的收集器，供测试使用
func Nop() *Collector {
	return NewCollector(nil)
}
