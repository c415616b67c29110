package interfaces

import (
	"context"

	"github.com/wiremq/go-wiremq/pkg/types"
)

// ============================================================================
//                              Socket 契约
// ============================================================================

// Socket 用户侧消息端点
//
// 一个 Socket 绑定一种消息模式（types.Pattern），持有零个或多个
// 管道（每个对端连接一个），发送/接收时应用模式特定的路由与过滤。
//
// 并发约束：Send/Recv 可能阻塞调用方线程（受超时与 ctx 约束），
// 但从不阻塞 I/O 线程；同一 Socket 可被多个调用方并发使用。
// 挂起中的 Send/Recv 会被 Close 或 Context 终止唤醒，返回取消错误。
type Socket interface {
	// Pattern 返回套接字的消息模式
	Pattern() types.Pattern

	// Bind 在地址上监听入站连接
	//
	// 地址形如 "tcp://0.0.0.0:5555"、"ipc:///tmp/svc.sock"、
	// "inproc://name"、"ws://host:port/path"，scheme 选择传输层。
	Bind(addr string) error

	// Connect 向地址发起出站连接
	//
	// 连接异步建立；传输错误触发指数退避重连。
	Connect(addr string) error

	// Send 发送一条消息
	//
	// 阻塞语义由背压策略与 send_timeout 选项决定；
	// ctx 取消立即返回 ctx.Err()。
	Send(ctx context.Context, msg *types.Message) error

	// TrySend 非阻塞发送
	//
	// 高水位时按策略返回 ErrPipeFull（fail/block 模式）或
	// 直接丢弃（drop 模式）。
	TrySend(msg *types.Message) error

	// Recv 接收一条消息
	//
	// 无消息时阻塞，受 receive_timeout 与 ctx 约束。
	Recv(ctx context.Context) (*types.Message, error)

	// TryRecv 非阻塞接收，无消息时返回 ErrTimeout
	TryRecv() (*types.Message, error)

	// SetOption 设置套接字选项（键见 types.Option*）
	SetOption(name string, value any) error

	// GetOption 读取套接字选项
	GetOption(name string) (any, error)

	// Close 关闭套接字
	//
	// 立即拒绝新的发送，按 linger 排空在途写出，
	// 然后拆除所有管道并通知对端。幂等。
	Close() error
}

// SubSocket 订阅者套接字的扩展契约
//
// 仅 PatternSub 套接字实现；订阅状态通过同一管道上的
// 控制帧同步到发布端。
type SubSocket interface {
	Socket

	// Subscribe 订阅主题前缀；空前缀订阅所有消息
	Subscribe(prefix []byte) error

	// Unsubscribe 取消订阅主题前缀
	Unsubscribe(prefix []byte) error
}
