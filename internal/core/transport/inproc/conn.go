package inproc

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"
)

var (
	// ErrConnClosed 连接已关闭
	ErrConnClosed = errors.New("inproc connection closed")

	// ErrDeadline 截止时间已过
	ErrDeadline = errors.New("inproc deadline exceeded")
)

// addr inproc 地址
type addr string

func (addr) Network() string  { return "inproc" }
func (a addr) String() string { return string(a) }

// ============================================================================
//                              带缓冲的内存双工通道
// ============================================================================

// 每方向的缓冲块数。net.Pipe 无缓冲，双方并发写问候会互锁，
// 因此 inproc 自带缓冲通道。
const connBuffer = 64

// conn 进程内双工字节通道
type conn struct {
	name string

	recv     chan []byte
	send     chan []byte
	leftover []byte // 上次 Read 未消费的块尾

	done      chan struct{}
	closeOnce *sync.Once

	mu            sync.Mutex
	readDeadline  time.Time
	writeDeadline time.Time
}

// newPair 创建一对相互连接的通道
func newPair(name string) (client, server *conn) {
	a2b := make(chan []byte, connBuffer)
	b2a := make(chan []byte, connBuffer)
	done := make(chan struct{})
	once := &sync.Once{}
	client = &conn{name: name, send: a2b, recv: b2a, done: done, closeOnce: once}
	server = &conn{name: name, send: b2a, recv: a2b, done: done, closeOnce: once}
	return client, server
}

// Read 读取字节
//
// 对端关闭后先排空缓冲块再返回 io.EOF。
func (c *conn) Read(p []byte) (int, error) {
	if len(c.leftover) > 0 {
		n := copy(p, c.leftover)
		c.leftover = c.leftover[n:]
		return n, nil
	}

	// 先尝试非阻塞取块：关闭后仍可排空
	select {
	case b := <-c.recv:
		return c.consume(p, b)
	default:
	}

	timeout := c.deadlineTimer(true)
	if timeout != nil {
		defer timeout.Stop()
		select {
		case b := <-c.recv:
			return c.consume(p, b)
		case <-c.done:
			return 0, io.EOF
		case <-timeout.C:
			return 0, ErrDeadline
		}
	}

	select {
	case b := <-c.recv:
		return c.consume(p, b)
	case <-c.done:
		return 0, io.EOF
	}
}

func (c *conn) consume(p, b []byte) (int, error) {
	n := copy(p, b)
	c.leftover = b[n:]
	return n, nil
}

// Write 写入字节
//
// 块被复制，调用方缓冲可立即复用。
func (c *conn) Write(p []byte) (int, error) {
	select {
	case <-c.done:
		return 0, ErrConnClosed
	default:
	}

	buf := make([]byte, len(p))
	copy(buf, p)

	timeout := c.deadlineTimer(false)
	if timeout != nil {
		defer timeout.Stop()
		select {
		case c.send <- buf:
			return len(p), nil
		case <-c.done:
			return 0, ErrConnClosed
		case <-timeout.C:
			return 0, ErrDeadline
		}
	}

	select {
	case c.send <- buf:
		return len(p), nil
	case <-c.done:
		return 0, ErrConnClosed
	}
}

// Close 关闭通道（双向，幂等）
func (c *conn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

// LocalAddr 返回本端地址
func (c *conn) LocalAddr() net.Addr { return addr(c.name) }

// RemoteAddr 返回对端地址
func (c *conn) RemoteAddr() net.Addr { return addr(c.name) }

// SetReadDeadline 设置读截止时间
func (c *conn) SetReadDeadline(t time.Time) error {
	c.mu.Lock()
	c.readDeadline = t
	c.mu.Unlock()
	return nil
}

// SetWriteDeadline 设置写截止时间
func (c *conn) SetWriteDeadline(t time.Time) error {
	c.mu.Lock()
	c.writeDeadline = t
	c.mu.Unlock()
	return nil
}

// deadlineTimer 为当前操作构造截止定时器，无截止时间返回 nil
func (c *conn) deadlineTimer(read bool) *time.Timer {
	c.mu.Lock()
	d := c.writeDeadline
	if read {
		d = c.readDeadline
	}
	c.mu.Unlock()

	if d.IsZero() {
		return nil
	}
	until := time.Until(d)
	if until <= 0 {
		until = time.Nanosecond
	}
	return time.NewTimer(until)
}
