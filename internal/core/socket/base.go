package socket

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/wiremq/go-wiremq/internal/core/engine"
	"github.com/wiremq/go-wiremq/internal/core/metrics"
	"github.com/wiremq/go-wiremq/internal/core/pipe"
	"github.com/wiremq/go-wiremq/internal/core/reactor"
	"github.com/wiremq/go-wiremq/pkg/interfaces"
	"github.com/wiremq/go-wiremq/pkg/lib/log"
	"github.com/wiremq/go-wiremq/pkg/types"
)

var logger = log.Logger("core/socket")

// drainPollInterval 关闭排空的轮询间隔
const drainPollInterval = 5 * time.Millisecond

// ============================================================================
//                              对端管道
// ============================================================================

// peerPipe 一条已挂接管道及其对端属性
type peerPipe struct {
	end      *pipe.End
	peer     engine.Properties
	identity types.Identity // 对端通告的标识，缺省时本地生成

	signaled bool // 已在就绪队列中，去重用
}

// ============================================================================
//                              Base
// ============================================================================

// Base 所有模式共享的套接字骨架
//
// 模式类型内嵌 *Base 并通过三个钩子定制行为：
// onAttach/onDetach 维护模式私有的管道索引，
// onReadable 截获入站唤醒（PUB 用它消费订阅控制帧）。
type Base struct {
	pattern types.Pattern
	r       *reactor.Reactor
	clk     clock.Clock
	mtx     *metrics.Collector

	mu        sync.Mutex
	opts      Options
	pipes     map[*pipe.End]*peerPipe
	order     []*peerPipe // 挂接顺序，轮转发送用
	rrNext    int
	readyQ    []*peerPipe
	endpoints []*reactor.Endpoint
	closed    bool

	done     chan struct{}
	recvWake chan struct{}
	sendWake chan struct{}

	onAttach   func(p *peerPipe)
	onDetach   func(p *peerPipe)
	onReadable func(p *peerPipe) bool // 返回 false 抑制就绪入队
}

func newBase(pattern types.Pattern, r *reactor.Reactor, clk clock.Clock, mtx *metrics.Collector, opts Options) *Base {
	if clk == nil {
		clk = clock.New()
	}
	return &Base{
		pattern:  pattern,
		r:        r,
		clk:      clk,
		mtx:      mtx,
		opts:     opts,
		pipes:    make(map[*pipe.End]*peerPipe),
		done:     make(chan struct{}),
		recvWake: make(chan struct{}, 1),
		sendWake: make(chan struct{}, 1),
	}
}

func wake(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Pattern 返回套接字的消息模式
func (b *Base) Pattern() types.Pattern { return b.pattern }

// ============================================================================
//                          reactor.Attacher 实现
// ============================================================================

// Identity 本端路由标识
func (b *Base) Identity() types.Identity {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opts.Identity
}

// Security 握手认证机制
func (b *Base) Security() interfaces.Mechanism {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opts.Mechanism
}

// PipeLimits 新建管道的高低水位
func (b *Base) PipeLimits() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opts.HWM, b.opts.LWM
}

// Backoff 重连退避区间
func (b *Base) Backoff() (time.Duration, time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opts.ReconnectInterval, b.opts.ReconnectIntervalMax
}

// Attach 接收新会话的管道端
func (b *Base) Attach(end *pipe.End, peer engine.Properties) {
	p := &peerPipe{end: end, peer: peer, identity: peer.Identity}
	if len(p.identity) == 0 {
		// 对端未通告标识，本地生成，保证 ROUTER 可寻址
		p.identity = types.Identity(uuid.NewString())
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		end.Close()
		return
	}
	b.pipes[end] = p
	b.order = append(b.order, p)
	b.mu.Unlock()

	end.SetReadableHook(func() { b.notifyReadable(p) })
	end.SetWritableHook(func() { wake(b.sendWake) })

	if h := b.onAttach; h != nil {
		h(p)
	}
	// 新管道即新发送额度
	wake(b.sendWake)
}

// Detach 收回管道端
//
// 就绪队列中的残留表项留待 popMessage 排空：
// 管道关闭后已缓冲的入站消息仍应交付。
func (b *Base) Detach(end *pipe.End) {
	b.mu.Lock()
	p, ok := b.pipes[end]
	if !ok {
		b.mu.Unlock()
		return
	}
	delete(b.pipes, end)
	for i, q := range b.order {
		if q == p {
			b.order = append(b.order[:i], b.order[i+1:]...)
			if b.rrNext > i {
				b.rrNext--
			}
			break
		}
	}
	b.mu.Unlock()

	if h := b.onDetach; h != nil {
		h(p)
	}
	// 等待者需要重新审视管道集合
	wake(b.recvWake)
	wake(b.sendWake)
}

// ============================================================================
//                              就绪队列
// ============================================================================

// notifyReadable 入站数据到达（I/O 线程调用）
func (b *Base) notifyReadable(p *peerPipe) {
	if h := b.onReadable; h != nil && !h(p) {
		return
	}
	b.mu.Lock()
	if !p.signaled {
		p.signaled = true
		b.readyQ = append(b.readyQ, p)
	}
	b.mu.Unlock()
	wake(b.recvWake)
}

// popMessage 公平地从就绪队列取一条消息
//
// 边沿触发：取出一条后若管道仍有积压则重新入队，
// 让各管道轮流被消费而非单管道霸占。
func (b *Base) popMessage() (*peerPipe, *types.Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for len(b.readyQ) > 0 {
		p := b.readyQ[0]
		b.readyQ = b.readyQ[1:]
		p.signaled = false
		m, ok := p.end.Dequeue()
		if !ok {
			continue
		}
		if p.end.ReadPending() > 0 {
			p.signaled = true
			b.readyQ = append(b.readyQ, p)
		} else {
			// 管道已空，立即归还全部读额度
			p.end.Flush()
		}
		return p, m, true
	}
	return nil, nil, false
}

// recvFrom 阻塞接收，返回消息与其来源管道
func (b *Base) recvFrom(ctx context.Context) (*peerPipe, *types.Message, error) {
	b.mu.Lock()
	closed := b.closed
	timeout := b.opts.RecvTimeout
	b.mu.Unlock()
	if closed {
		return nil, nil, types.ErrSocketClosed
	}

	var expire <-chan time.Time
	if timeout > 0 {
		t := b.clk.Timer(timeout)
		defer t.Stop()
		expire = t.C
	}
	for {
		if p, m, ok := b.popMessage(); ok {
			return p, m, nil
		}
		if timeout == 0 {
			return nil, nil, types.ErrTimeout
		}
		select {
		case <-b.recvWake:
		case <-expire:
			return nil, nil, types.ErrTimeout
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-b.done:
			return nil, nil, types.ErrSocketClosed
		}
	}
}

// ============================================================================
//                              发送骨架
// ============================================================================

// sendWith 按背压策略执行发送尝试
//
// try 返回 nil 表示成功，types.ErrPipeFull / ErrNoPeers 表示暂时
// 不可发送（block 策略下等待重试），其余错误直接透传。
func (b *Base) sendWith(ctx context.Context, try func() error) error {
	b.mu.Lock()
	closed := b.closed
	policy := b.opts.Backpressure
	timeout := b.opts.SendTimeout
	b.mu.Unlock()
	if closed {
		return types.ErrSocketClosed
	}

	err := try()
	if err == nil || !retryable(err) {
		return err
	}

	switch policy {
	case types.BackpressureDrop:
		b.mtx.MessagesDropped.Inc()
		return nil
	case types.BackpressureFail:
		return err
	}

	// block：在超时窗口内等待额度
	if timeout == 0 {
		return types.ErrTimeout
	}
	var expire <-chan time.Time
	if timeout > 0 {
		t := b.clk.Timer(timeout)
		defer t.Stop()
		expire = t.C
	}
	for {
		select {
		case <-b.sendWake:
		case <-expire:
			return types.ErrTimeout
		case <-ctx.Done():
			return ctx.Err()
		case <-b.done:
			return types.ErrSocketClosed
		}
		err = try()
		if err == nil || !retryable(err) {
			return err
		}
	}
}

func retryable(err error) bool {
	return errors.Is(err, types.ErrPipeFull) || errors.Is(err, ErrNoPeers)
}

// pickPipe 轮转挑选下一条管道
//
// needCredit 为真时跳过满额管道；无可用管道返回 nil。
func (b *Base) pickPipe(needCredit bool) *peerPipe {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.order)
	for i := 0; i < n; i++ {
		p := b.order[(b.rrNext+i)%n]
		if p.end.Closed() {
			continue
		}
		if needCredit && !p.end.HasCredit() {
			continue
		}
		b.rrNext = (b.rrNext + i + 1) % n
		return p
	}
	return nil
}

// trySendRR 轮转选管道并尝试入队一次
//
// 选中后对端恰好填满或关闭时换下一条；全部不可用时
// 返回 ErrNoPeers（无管道）或 types.ErrPipeFull（均满额）。
func (b *Base) trySendRR(m *types.Message) (*peerPipe, error) {
	for {
		p := b.pickPipe(true)
		if p == nil {
			b.mu.Lock()
			n := len(b.order)
			b.mu.Unlock()
			if n == 0 {
				return nil, ErrNoPeers
			}
			return nil, types.ErrPipeFull
		}
		err := p.end.TryEnqueue(m)
		switch {
		case err == nil:
			return p, nil
		case errors.Is(err, pipe.ErrPipeClosed), errors.Is(err, types.ErrPipeFull):
			continue
		default:
			return nil, err
		}
	}
}

// snapshotPipes 当前管道快照（PUB 扇出用）
func (b *Base) snapshotPipes() []*peerPipe {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*peerPipe, len(b.order))
	copy(out, b.order)
	return out
}

// ============================================================================
//                              Bind / Connect
// ============================================================================

// Bind 在地址上监听入站连接
func (b *Base) Bind(addr string) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return types.ErrSocketClosed
	}
	b.mu.Unlock()

	ep, err := b.r.Bind(b, addr)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.endpoints = append(b.endpoints, ep)
	b.mu.Unlock()
	return nil
}

// Connect 向地址发起出站连接（异步建立，自动重连）
func (b *Base) Connect(addr string) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return types.ErrSocketClosed
	}
	b.mu.Unlock()

	ep, err := b.r.Connect(b, addr)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.endpoints = append(b.endpoints, ep)
	b.mu.Unlock()
	return nil
}

// Endpoints 返回端点快照（测试与诊断用）
func (b *Base) Endpoints() []*reactor.Endpoint {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*reactor.Endpoint, len(b.endpoints))
	copy(out, b.endpoints)
	return out
}

// ============================================================================
//                              选项
// ============================================================================

// SetOption 设置套接字选项
func (b *Base) SetOption(name string, value any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return types.ErrSocketClosed
	}
	return b.opts.set(name, value)
}

// GetOption 读取套接字选项
func (b *Base) GetOption(name string) (any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opts.get(name)
}

// ============================================================================
//                              关闭
// ============================================================================

// Close 关闭套接字
//
// 立即拒绝新的发送与接收，按 linger 等待在途写出排空，
// 然后关闭端点与全部管道。幂等。
func (b *Base) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	linger := b.opts.Linger
	pipes := make([]*peerPipe, len(b.order))
	copy(pipes, b.order)
	endpoints := make([]*reactor.Endpoint, len(b.endpoints))
	copy(endpoints, b.endpoints)
	b.mu.Unlock()

	close(b.done)
	b.drainOutbound(pipes, linger)

	for _, ep := range endpoints {
		_ = ep.Close()
	}
	for _, p := range pipes {
		p.end.Close()
	}
	logger.Debug("套接字已关闭", "pattern", b.pattern.String(), "pipes", len(pipes))
	return nil
}

// drainOutbound 等待所有管道的在途写出被 I/O 侧消费
func (b *Base) drainOutbound(pipes []*peerPipe, linger time.Duration) {
	if linger == 0 || len(pipes) == 0 {
		return
	}
	var expire <-chan time.Time
	if linger > 0 {
		t := b.clk.Timer(linger)
		defer t.Stop()
		expire = t.C
	}
	tick := b.clk.Ticker(drainPollInterval)
	defer tick.Stop()
	for {
		drained := true
		for _, p := range pipes {
			if !p.end.Closed() && p.end.WriteOutstanding() > 0 {
				drained = false
				break
			}
		}
		if drained {
			return
		}
		select {
		case <-tick.C:
		case <-expire:
			return
		}
	}
}
