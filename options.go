package wiremq

import (
	"io"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/wiremq/go-wiremq/internal/core/security"
	"github.com/wiremq/go-wiremq/internal/core/socket"
	"github.com/wiremq/go-wiremq/pkg/types"
)

// ============================================================================
//                              Context 选项
// ============================================================================

// contextConfig Context 构建配置
type contextConfig struct {
	ioThreads    int
	maxFrameSize uint64
	clk          clock.Clock
	gatherer     *prometheus.Registry // 外部注入的指标注册表，可为 nil
	logOutput    io.Writer
	logLevel     slog.Level
	logConfigured bool
	extraFx      []fx.Option
}

// Option Context 构建选项
type Option func(*contextConfig)

// WithIOThreads 设置 I/O 线程数
func WithIOThreads(n int) Option {
	return func(c *contextConfig) { c.ioThreads = n }
}

// WithMaxFrameSize 设置单帧长度上限
func WithMaxFrameSize(n uint64) Option {
	return func(c *contextConfig) { c.maxFrameSize = n }
}

// WithClock 注入时钟（测试用 clock.Mock）
func WithClock(clk clock.Clock) Option {
	return func(c *contextConfig) { c.clk = clk }
}

// WithMetricsRegistry 把指标注册到外部 prometheus.Registry
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(c *contextConfig) { c.gatherer = reg }
}

// WithLogging 设置日志输出与级别
func WithLogging(w io.Writer, level slog.Level) Option {
	return func(c *contextConfig) {
		c.logOutput = w
		c.logLevel = level
		c.logConfigured = true
	}
}

// WithFxOption 追加自定义 fx 模块（高级用法）
func WithFxOption(opts ...fx.Option) Option {
	return func(c *contextConfig) { c.extraFx = append(c.extraFx, opts...) }
}

// ============================================================================
//                              Socket 选项
// ============================================================================

// SocketOption 套接字创建选项
type SocketOption func(*socket.Options)

// WithHWM 设置高水位
func WithHWM(n int) SocketOption {
	return func(o *socket.Options) { o.HWM = n }
}

// WithLWM 设置低水位
func WithLWM(n int) SocketOption {
	return func(o *socket.Options) { o.LWM = n }
}

// WithLinger 设置关闭时的排空时长（0 立即，负值无限等待）
func WithLinger(d time.Duration) SocketOption {
	return func(o *socket.Options) { o.Linger = d }
}

// WithIdentity 设置对端可见的路由标识
func WithIdentity(id []byte) SocketOption {
	return func(o *socket.Options) { o.Identity = types.Identity(id) }
}

// WithBackpressure 设置高水位策略
func WithBackpressure(p Backpressure) SocketOption {
	return func(o *socket.Options) { o.Backpressure = p }
}

// WithSendTimeout 设置阻塞发送的截止时长
func WithSendTimeout(d time.Duration) SocketOption {
	return func(o *socket.Options) { o.SendTimeout = d }
}

// WithRecvTimeout 设置阻塞接收的截止时长
func WithRecvTimeout(d time.Duration) SocketOption {
	return func(o *socket.Options) { o.RecvTimeout = d }
}

// WithReconnectInterval 设置重连退避的初始间隔与上限
func WithReconnectInterval(base, max time.Duration) SocketOption {
	return func(o *socket.Options) {
		o.ReconnectInterval = base
		o.ReconnectIntervalMax = max
	}
}

// WithPlainClient 使用 PLAIN 机制握手（客户端侧凭据）
func WithPlainClient(username, password string) SocketOption {
	return func(o *socket.Options) {
		o.Mechanism = security.NewPlainClient(username, password)
	}
}

// WithPlainServer 使用 PLAIN 机制握手（服务端侧校验函数）
func WithPlainServer(validate func(username, password string) bool) SocketOption {
	return func(o *socket.Options) {
		o.Mechanism = security.NewPlainServer(security.Validator(validate))
	}
}
