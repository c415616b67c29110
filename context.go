package wiremq

import (
	stdctx "context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/wiremq/go-wiremq/internal/core/metrics"
	"github.com/wiremq/go-wiremq/internal/core/reactor"
	"github.com/wiremq/go-wiremq/internal/core/socket"
	"github.com/wiremq/go-wiremq/pkg/lib/log"
)

var logger = log.Logger("wiremq")

// startTimeout fx 应用启动/停止的宽限时长
const startTimeout = 15 * time.Second

// ============================================================================
//                              Context
// ============================================================================

// Context 消息库的根对象
//
// 持有 I/O 反应器、传输注册表与指标收集器，套接字都从它创建。
// 终止分两阶段：先并行关闭所有套接字（各自按 linger 排空），
// 再停掉 fx 应用（反应器、传输、指标依序收尾）。
type Context struct {
	app       *fx.App
	reactor   *reactor.Reactor
	collector *metrics.Collector
	clk       clock.Clock

	mu      sync.Mutex
	sockets map[Socket]struct{}
	closed  bool
}

// New 创建 Context
func New(opts ...Option) (*Context, error) {
	cfg := &contextConfig{}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.logConfigured {
		log.SetOutputWithLevel(cfg.logOutput, cfg.logLevel)
	}

	ctx := &Context{sockets: make(map[Socket]struct{})}
	ctx.app = buildFxApp(cfg, ctx)

	startCtx, cancel := stdctx.WithTimeout(stdctx.Background(), startTimeout)
	defer cancel()
	if err := ctx.app.Start(startCtx); err != nil {
		return nil, err
	}
	logger.Debug("context 已启动", "version", Version)
	return ctx, nil
}

// NewSocket 创建指定模式的套接字
func (c *Context) NewSocket(pattern Pattern, opts ...SocketOption) (Socket, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrContextClosed
	}
	c.mu.Unlock()

	sockOpts := socket.DefaultOptions()
	for _, o := range opts {
		o(&sockOpts)
	}
	s, err := socket.New(pattern, c.reactor, c.clk, c.collector, sockOpts)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = s.Close()
		return nil, ErrContextClosed
	}
	c.sockets[s] = struct{}{}
	c.mu.Unlock()
	return s, nil
}

// Terminate 终止 Context
//
// 阶段一：并行关闭所有存活套接字，各自按 linger 排空在途写出；
// 阶段二：停止 fx 应用，反应器拆除全部会话，传输层关闭。
// 幂等；ctx 约束第二阶段的收尾时长。
func (c *Context) Terminate(ctx stdctx.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	sockets := make([]Socket, 0, len(c.sockets))
	for s := range c.sockets {
		sockets = append(sockets, s)
	}
	c.sockets = nil
	c.mu.Unlock()

	var wg sync.WaitGroup
	errs := make([]error, len(sockets))
	for i, s := range sockets {
		wg.Add(1)
		go func(i int, s Socket) {
			defer wg.Done()
			errs[i] = s.Close()
		}(i, s)
	}
	wg.Wait()

	err := multierr.Combine(errs...)
	if ctx == nil {
		ctx = stdctx.Background()
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel stdctx.CancelFunc
		ctx, cancel = stdctx.WithTimeout(ctx, startTimeout)
		defer cancel()
	}
	err = multierr.Append(err, c.app.Stop(ctx))
	logger.Debug("context 已终止", "sockets", len(sockets))
	return err
}

// Close 以默认宽限时长终止 Context
func (c *Context) Close() error {
	return c.Terminate(stdctx.Background())
}
