package ws

import (
	"io"
	"net"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wiremq/go-wiremq/pkg/interfaces"
)

// ============================================================================
//                              Conn 适配
// ============================================================================

// conn 把 websocket.Conn 适配为双工字节通道
//
// 每次 Write 发出一个二进制消息；Read 消费消息流，
// 跨消息边界的剩余字节缓存在 reader 中。
type conn struct {
	ws     *websocket.Conn
	reader io.Reader // 当前消息的未读部分
}

// 确保实现接口
var _ interfaces.Conn = (*conn)(nil)

func newConn(ws *websocket.Conn) *conn {
	return &conn{ws: ws}
}

// Read 读取字节
func (c *conn) Read(p []byte) (int, error) {
	for {
		if c.reader != nil {
			n, err := c.reader.Read(p)
			if err == io.EOF {
				// 当前消息读尽，换下一个
				c.reader = nil
				if n > 0 {
					return n, nil
				}
				continue
			}
			return n, err
		}

		msgType, r, err := c.ws.NextReader()
		if err != nil {
			return 0, translateError(err)
		}
		if msgType != websocket.BinaryMessage {
			// 忽略文本与控制消息
			continue
		}
		c.reader = r
	}
}

// Write 写入字节（单个二进制消息）
func (c *conn) Write(p []byte) (int, error) {
	if err := c.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, translateError(err)
	}
	return len(p), nil
}

// Close 关闭连接
func (c *conn) Close() error {
	return c.ws.Close()
}

// LocalAddr 返回本端地址
func (c *conn) LocalAddr() net.Addr { return c.ws.LocalAddr() }

// RemoteAddr 返回对端地址
func (c *conn) RemoteAddr() net.Addr { return c.ws.RemoteAddr() }

// SetReadDeadline 设置读截止时间
func (c *conn) SetReadDeadline(t time.Time) error {
	return c.ws.SetReadDeadline(t)
}

// SetWriteDeadline 设置写截止时间
func (c *conn) SetWriteDeadline(t time.Time) error {
	return c.ws.SetWriteDeadline(t)
}

// translateError 把正常关闭映射为 io.EOF，让会话按对端关闭处理
func translateError(err error) error {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return io.EOF
	}
	return err
}
