package reactor

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/wiremq/go-wiremq/internal/core/metrics"
	"github.com/wiremq/go-wiremq/internal/core/transport"
	"github.com/wiremq/go-wiremq/pkg/interfaces"
	"github.com/wiremq/go-wiremq/pkg/lib/log"
	"github.com/wiremq/go-wiremq/pkg/types"
)

var logger = log.Logger("core/reactor")

// ============================================================================
//                              反应器
// ============================================================================

// Config 反应器配置
type Config struct {
	// IOThreads I/O 线程数，0 使用默认值
	IOThreads int

	// MaxFrameSize 单帧长度上限，0 使用引擎默认值
	MaxFrameSize uint64
}

// Reactor 连接管理中枢
//
// 持有 I/O 线程池与传输注册表，为套接字执行 Bind 与 Connect。
// 每个 Context 恰好持有一个反应器。
type Reactor struct {
	cfg      Config
	registry *transport.Registry
	mtx      *metrics.Collector
	clk      clock.Clock
	pool     *pool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	endpoints map[*Endpoint]struct{}
	closed    bool
}

// New 创建并启动反应器
func New(cfg Config, registry *transport.Registry, mtx *metrics.Collector, clk clock.Clock) *Reactor {
	if clk == nil {
		clk = clock.New()
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Reactor{
		cfg:       cfg,
		registry:  registry,
		mtx:       mtx,
		clk:       clk,
		pool:      newPool(cfg.IOThreads),
		ctx:       ctx,
		cancel:    cancel,
		endpoints: make(map[*Endpoint]struct{}),
	}
	r.pool.start()
	return r
}

// Close 关闭反应器：停掉所有端点、会话与 I/O 线程
func (r *Reactor) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	endpoints := make([]*Endpoint, 0, len(r.endpoints))
	for ep := range r.endpoints {
		endpoints = append(endpoints, ep)
	}
	r.endpoints = nil
	r.mu.Unlock()

	r.cancel()
	for _, ep := range endpoints {
		_ = ep.Close()
	}
	r.wg.Wait()
	r.pool.shutdown()
	return nil
}

func (r *Reactor) addEndpoint(ep *Endpoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrReactorClosed
	}
	r.endpoints[ep] = struct{}{}
	return nil
}

func (r *Reactor) removeEndpoint(ep *Endpoint) {
	r.mu.Lock()
	if r.endpoints != nil {
		delete(r.endpoints, ep)
	}
	r.mu.Unlock()
}

// ============================================================================
//                              Bind
// ============================================================================

// Bind 在地址上监听并为每条入站连接建立会话
func (r *Reactor) Bind(owner Attacher, addr string) (*Endpoint, error) {
	tr, endpoint, err := r.registry.Lookup(addr)
	if err != nil {
		return nil, err
	}
	l, err := tr.Listen(endpoint)
	if err != nil {
		return nil, fmt.Errorf("监听 %s 失败: %w", addr, err)
	}

	ep := newEndpoint(addr, l)
	if err := r.addEndpoint(ep); err != nil {
		_ = l.Close()
		return nil, err
	}

	r.wg.Add(1)
	go r.acceptLoop(ep, owner)
	logger.Info("已绑定", "addr", addr, "listen", l.Addr().String())
	return ep, nil
}

func (r *Reactor) acceptLoop(ep *Endpoint, owner Attacher) {
	defer r.wg.Done()
	defer r.removeEndpoint(ep)

	for {
		conn, err := ep.listener.Accept()
		if err != nil {
			if !ep.closed() {
				logger.Warn("监听器终止", "addr", ep.addr, "err", err)
			}
			return
		}

		s := newSession(conn, owner, r.mtx, r.cfg.MaxFrameSize)
		ep.track(s)
		th := r.pool.assign()
		th.register(s)

		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			// 入站会话出错即丢弃，重连由对端负责
			if err := s.run(r.ctx, true); err != nil && !errors.Is(err, context.Canceled) {
				logger.Debug("入站会话结束", "session", s.id, "err", err)
			}
			th.unregister(s)
			ep.untrack(s)
		}()
	}
}

// ============================================================================
//                              Connect
// ============================================================================

// Connect 建立出站连接并维护其重连循环
//
// 返回时连接尚未必建立：首次拨号与后续重连都在后台进行，
// 期间发送的消息先积压在套接字侧。
func (r *Reactor) Connect(owner Attacher, addr string) (*Endpoint, error) {
	tr, endpoint, err := r.registry.Lookup(addr)
	if err != nil {
		return nil, err
	}

	ep := newEndpoint(addr, nil)
	if err := r.addEndpoint(ep); err != nil {
		return nil, err
	}

	r.wg.Add(1)
	go r.connectLoop(ep, owner, tr, endpoint)
	logger.Info("开始连接", "addr", addr)
	return ep, nil
}

func (r *Reactor) connectLoop(ep *Endpoint, owner Attacher, tr interfaces.Transport, endpoint string) {
	defer r.wg.Done()
	defer r.removeEndpoint(ep)

	base, max := owner.Backoff()
	attempt := 0
	for {
		if ep.closed() || r.ctx.Err() != nil {
			return
		}

		conn, err := tr.Dial(r.ctx, endpoint)
		if err != nil {
			attempt++
			r.mtx.Reconnects.Inc()
			delay := backoffDelay(attempt, base, max)
			logger.Debug("拨号失败，退避重试",
				"addr", ep.addr, "attempt", attempt, "delay", delay, "err", err)
			if !r.sleep(ep, delay) {
				return
			}
			continue
		}
		attempt = 0

		s := newSession(conn, owner, r.mtx, r.cfg.MaxFrameSize)
		ep.track(s)
		th := r.pool.assign()
		th.register(s)

		err = s.run(r.ctx, false)
		th.unregister(s)
		ep.untrack(s)

		if ep.closed() || r.ctx.Err() != nil {
			return
		}
		if err != nil {
			logger.Debug("出站会话结束，准备重连", "session", s.id, "addr", ep.addr, "err", err)
		}
		attempt = 1
		r.mtx.Reconnects.Inc()
		if !r.sleep(ep, backoffDelay(attempt, base, max)) {
			return
		}
	}
}

// sleep 等待退避间隔，端点或反应器关闭时提前返回 false
func (r *Reactor) sleep(ep *Endpoint, d time.Duration) bool {
	t := r.clk.Timer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ep.done:
		return false
	case <-r.ctx.Done():
		return false
	}
}

// backoffDelay 计算第 attempt 次重试的退避时长
//
// 指数增长封顶，再取全抖动（均匀落在 (0, d] 区间），
// 避免大量连接端同时重拨形成惊群。
func backoffDelay(attempt int, base, max time.Duration) time.Duration {
	if base <= 0 {
		base = types.DefaultReconnectInterval
	}
	if max <= 0 {
		max = types.DefaultReconnectIntervalMax
	}
	d := base
	for i := 1; i < attempt && d < max; i++ {
		d *= 2
	}
	if d > max {
		d = max
	}
	return time.Duration(rand.Int63n(int64(d))) + 1
}
