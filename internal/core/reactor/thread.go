package reactor

import (
	"sync"
	"sync/atomic"
)

// ============================================================================
//                              I/O 线程
// ============================================================================

// commandQueueSize 命令队列缓冲长度
const commandQueueSize = 64

// ioThread 单个 I/O 工作线程
//
// 线程私有状态（钉定会话集合）只在 run 循环内访问，
// 外部通过 post 提交闭包修改，天然串行无需加锁。
type ioThread struct {
	id   int
	cmds chan func()

	stop    chan struct{}
	stopped chan struct{}

	sessions map[*Session]struct{}
}

func newIOThread(id int) *ioThread {
	return &ioThread{
		id:       id,
		cmds:     make(chan func(), commandQueueSize),
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
		sessions: make(map[*Session]struct{}),
	}
}

func (t *ioThread) run() {
	defer close(t.stopped)
	for {
		select {
		case f := <-t.cmds:
			f()
		case <-t.stop:
			// 停机时关闭仍钉定在本线程的会话
			for s := range t.sessions {
				s.Close()
			}
			return
		}
	}
}

// post 向线程提交命令
//
// 线程已停止时返回 false，命令被丢弃。
func (t *ioThread) post(f func()) bool {
	select {
	case t.cmds <- f:
		return true
	case <-t.stop:
		return false
	}
}

// register 将会话钉定到本线程
func (t *ioThread) register(s *Session) {
	t.post(func() { t.sessions[s] = struct{}{} })
}

// unregister 解除会话钉定
func (t *ioThread) unregister(s *Session) {
	t.post(func() { delete(t.sessions, s) })
}

// ============================================================================
//                              线程池
// ============================================================================

// DefaultIOThreads 默认 I/O 线程数
const DefaultIOThreads = 2

// pool 固定大小的 I/O 线程池
type pool struct {
	threads []*ioThread
	next    atomic.Uint32
}

func newPool(n int) *pool {
	if n <= 0 {
		n = DefaultIOThreads
	}
	p := &pool{threads: make([]*ioThread, n)}
	for i := range p.threads {
		p.threads[i] = newIOThread(i)
	}
	return p
}

func (p *pool) start() {
	for _, t := range p.threads {
		go t.run()
	}
}

func (p *pool) shutdown() {
	var wg sync.WaitGroup
	for _, t := range p.threads {
		close(t.stop)
	}
	for _, t := range p.threads {
		wg.Add(1)
		go func(t *ioThread) {
			defer wg.Done()
			<-t.stopped
		}(t)
	}
	wg.Wait()
}

// assign 轮转挑选线程，新会话钉定其上
func (p *pool) assign() *ioThread {
	i := p.next.Add(1) - 1
	return p.threads[int(i)%len(p.threads)]
}
