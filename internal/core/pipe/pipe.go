package pipe

import (
	"sync"
	"sync/atomic"

	"github.com/wiremq/go-wiremq/pkg/types"
)

// ============================================================================
//                              单向环
// ============================================================================

// ring 单生产者/单消费者有界环形队列
//
// wpos 仅由写者推进，rack 仅由读者推进；rpos 为读者本地游标，
// 不跨线程发布。容量为不小于 HWM 的 2 的幂。
type ring struct {
	buf  []*types.Message
	mask uint64

	hwm      uint64
	ackBatch uint64 // rack 发布批量 = HWM − LWM，至少为 1

	wpos atomic.Uint64 // 写者发布
	rack atomic.Uint64 // 读者发布
	rpos uint64        // 读者本地

	data   chan struct{} // 写者 → 读者：有数据
	credit chan struct{} // 读者 → 写者：额度恢复

	onData   atomic.Pointer[func()] // 读端挂接
	onCredit atomic.Pointer[func()] // 写端挂接
}

func newRing(hwm, lwm int) *ring {
	capacity := uint64(1)
	for capacity < uint64(hwm) {
		capacity <<= 1
	}
	batch := uint64(hwm - lwm)
	if batch == 0 {
		batch = 1
	}
	return &ring{
		buf:      make([]*types.Message, capacity),
		mask:     capacity - 1,
		hwm:      uint64(hwm),
		ackBatch: batch,
		data:     make(chan struct{}, 1),
		credit:   make(chan struct{}, 1),
	}
}

// enqueue 写者入队
//
// 额度耗尽返回 types.ErrPipeFull，绝不越过 HWM。
func (r *ring) enqueue(m *types.Message) error {
	w := r.wpos.Load()
	if w-r.rack.Load() >= r.hwm {
		return types.ErrPipeFull
	}
	r.buf[w&r.mask] = m
	r.wpos.Store(w + 1)

	select {
	case r.data <- struct{}{}:
	default:
	}
	if f := r.onData.Load(); f != nil {
		(*f)()
	}
	return nil
}

// dequeue 读者出队
func (r *ring) dequeue() (*types.Message, bool) {
	if r.rpos == r.wpos.Load() {
		return nil, false
	}
	m := r.buf[r.rpos&r.mask]
	r.buf[r.rpos&r.mask] = nil
	r.rpos++

	// 滞回：未确认数量达到批量阈值才发布 rack
	if r.rpos-r.rack.Load() >= r.ackBatch {
		r.publishAck()
	}
	return m, true
}

// publishAck 发布读者确认并唤醒写者
func (r *ring) publishAck() {
	r.rack.Store(r.rpos)

	select {
	case r.credit <- struct{}{}:
	default:
	}
	if f := r.onCredit.Load(); f != nil {
		(*f)()
	}
}

// flush 强制发布确认（排空与关闭路径使用）
func (r *ring) flush() {
	if r.rpos != r.rack.Load() {
		r.publishAck()
	}
}

// pending 读者视角的未消费数量
func (r *ring) pending() int {
	return int(r.wpos.Load() - r.rpos)
}

// outstanding 写者视角的未确认数量
func (r *ring) outstanding() int {
	return int(r.wpos.Load() - r.rack.Load())
}

// ============================================================================
//                              管道对
// ============================================================================

// Pair 连接套接字端与 I/O 端的双向管道
type Pair struct {
	sockEnd End
	ioEnd   End

	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
}

// End 管道的一端
//
// 每端向 out 环写入、从 in 环读取；两端的 out/in 互为镜像。
type End struct {
	pair *Pair
	out  *ring
	in   *ring
}

// NewPair 创建管道对
//
// hwm 两个方向共用；lwm 必须小于 hwm，非法配置返回错误。
func NewPair(hwm, lwm int) (*Pair, error) {
	if hwm <= 0 {
		hwm = types.DefaultHWM
	}
	if lwm <= 0 {
		lwm = hwm / 2
	}
	if lwm >= hwm {
		return nil, ErrInvalidWaterMark
	}

	p := &Pair{done: make(chan struct{})}
	toIO := newRing(hwm, lwm)   // 套接字 → I/O
	toSock := newRing(hwm, lwm) // I/O → 套接字
	p.sockEnd = End{pair: p, out: toIO, in: toSock}
	p.ioEnd = End{pair: p, out: toSock, in: toIO}
	return p, nil
}

// SocketEnd 返回套接字端
func (p *Pair) SocketEnd() *End { return &p.sockEnd }

// IOEnd 返回 I/O 端
func (p *Pair) IOEnd() *End { return &p.ioEnd }

// Close 关闭管道对
//
// 关闭后两端入队均失败；已缓冲的消息仍可出队（排空用）。幂等。
func (p *Pair) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.done)
	})
}

// Done 关闭通知
func (p *Pair) Done() <-chan struct{} { return p.done }

// Closed 检查是否已关闭
func (p *Pair) Closed() bool { return p.closed.Load() }

// ============================================================================
//                              End 操作
// ============================================================================

// TryEnqueue 非阻塞入队
func (e *End) TryEnqueue(m *types.Message) error {
	if e.pair.closed.Load() {
		return ErrPipeClosed
	}
	return e.out.enqueue(m)
}

// Dequeue 非阻塞出队
//
// 管道关闭后仍返回已缓冲的消息，直至排空。
func (e *End) Dequeue() (*types.Message, bool) {
	return e.in.dequeue()
}

// Flush 强制发布读确认，立即归还额度给对端写者
func (e *End) Flush() {
	e.in.flush()
}

// Readable 入站数据唤醒通道
func (e *End) Readable() <-chan struct{} { return e.in.data }

// Writable 出站额度唤醒通道
func (e *End) Writable() <-chan struct{} { return e.out.credit }

// Done 管道关闭通知
func (e *End) Done() <-chan struct{} { return e.pair.done }

// Close 关闭整个管道对
func (e *End) Close() { e.pair.Close() }

// Closed 检查管道是否已关闭
func (e *End) Closed() bool { return e.pair.closed.Load() }

// ReadPending 本端待读消息数
func (e *End) ReadPending() int { return e.in.pending() }

// WriteOutstanding 本端已写出但对端未确认的消息数
//
// 排空判断用：对端持续 Dequeue+Flush 时收敛到 0。
func (e *End) WriteOutstanding() int { return e.out.outstanding() }

// HasCredit 本端是否还有写额度
func (e *End) HasCredit() bool { return e.out.outstanding() < int(e.out.hwm) }

// SetReadableHook 挂接入站数据回调（由本端读者设置，入队线程调用）
func (e *End) SetReadableHook(f func()) {
	if f == nil {
		e.in.onData.Store(nil)
		return
	}
	e.in.onData.Store(&f)
}

// SetWritableHook 挂接额度恢复回调（由本端写者设置，出队线程调用）
func (e *End) SetWritableHook(f func()) {
	if f == nil {
		e.out.onCredit.Store(nil)
		return
	}
	e.out.onCredit.Store(&f)
}
