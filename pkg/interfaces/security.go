package interfaces

import (
	"context"
	"io"
)

// ============================================================================
//                              认证机制契约
// ============================================================================

// Mechanism 可插拔认证机制
//
// 在问候交换之后、READY 命令之前由引擎调用。
// 机制名随问候通告，双方不一致对该连接致命。
// 核心自带 NULL（无认证）与 PLAIN（明文凭据）实现；
// 加密传输等更强机制作为外部协作者接入同一契约。
type Mechanism interface {
	// Name 返回机制名（问候中以 20 字节 NUL 填充编码）
	Name() string

	// Handshake 在通道上执行机制握手
	//
	// server 为 true 表示本端为被连接方。
	// 返回错误即认证失败，连接被拆除（不影响进程）。
	Handshake(ctx context.Context, rw io.ReadWriter, server bool) error
}
