package engine

import (
	"context"
	"fmt"
	"io"

	"github.com/wiremq/go-wiremq/pkg/interfaces"
	"github.com/wiremq/go-wiremq/pkg/lib/log"
	"github.com/wiremq/go-wiremq/pkg/types"
)

var logger = log.Logger("core/engine")

// ============================================================================
//                              引擎
// ============================================================================

// Config 引擎配置
type Config struct {
	// Pattern 本端套接字模式
	Pattern types.Pattern

	// Identity 本端路由标识，可为空
	Identity types.Identity

	// Mechanism 认证机制
	Mechanism interfaces.Mechanism

	// MaxFrameSize 单帧长度上限，0 使用默认值
	MaxFrameSize uint64
}

// Engine 每连接协议状态机
//
// 一条活跃传输通道恰好对应一个引擎。握手完成前不接受数据帧；
// 握手之后引擎退化为纯编解码器，读写循环各自驱动一侧。
type Engine struct {
	cfg  Config
	dec  *Decoder
	wbuf []byte // 写侧复用缓冲，仅写循环访问

	peer   Properties
	active bool
}

// New 创建引擎
func New(cfg Config) *Engine {
	return &Engine{
		cfg: cfg,
		dec: NewDecoder(cfg.MaxFrameSize),
	}
}

// Peer 返回握手协商出的对端属性
func (e *Engine) Peer() Properties { return e.peer }

// Active 握手是否已完成
func (e *Engine) Active() bool { return e.active }

// ============================================================================
//                              握手
// ============================================================================

// Handshake 在通道上执行完整握手
//
// 流程：
//  1. 交换固定长度问候，校验签名、主版本与机制名
//  2. 执行认证机制握手（NULL 为空操作）
//  3. 交换 READY 命令，校验模式兼容表
//
// 任何失败对该连接致命；超时由调用方通过 conn 的 Deadline 控制。
func (e *Engine) Handshake(ctx context.Context, conn interfaces.Conn, server bool) (Properties, error) {
	// 1. 问候交换
	local := NewGreeting(e.cfg.Mechanism.Name(), server)
	if _, err := conn.Write(local.Encode()); err != nil {
		return Properties{}, fmt.Errorf("写入问候失败: %w", err)
	}

	gbuf := make([]byte, GreetingSize)
	if _, err := io.ReadFull(conn, gbuf); err != nil {
		return Properties{}, fmt.Errorf("读取问候失败: %w", err)
	}
	remote, err := ParseGreeting(gbuf)
	if err != nil {
		return Properties{}, err
	}
	if remote.Mechanism != e.cfg.Mechanism.Name() {
		return Properties{}, fmt.Errorf("%w: 本端 %q 对端 %q",
			ErrMechanismMismatch, e.cfg.Mechanism.Name(), remote.Mechanism)
	}

	// 2. 认证机制握手
	if err := e.cfg.Mechanism.Handshake(ctx, conn, server); err != nil {
		return Properties{}, fmt.Errorf("机制握手失败: %w", err)
	}

	// 3. READY 交换
	ready := &Command{
		Name: CmdReady,
		Body: EncodeReadyBody(Properties{Pattern: e.cfg.Pattern, Identity: e.cfg.Identity}),
	}
	if _, err := conn.Write(AppendCommand(nil, ready)); err != nil {
		return Properties{}, fmt.Errorf("写入 READY 失败: %w", err)
	}

	peer, err := e.readReady(conn)
	if err != nil {
		return Properties{}, err
	}

	if !e.cfg.Pattern.CompatibleWith(peer.Pattern) {
		e.WriteError(conn, "incompatible pattern "+peer.Pattern.String())
		return Properties{}, fmt.Errorf("%w: 本端 %s 对端 %s",
			ErrPatternMismatch, e.cfg.Pattern, peer.Pattern)
	}

	e.peer = peer
	e.active = true
	logger.Debug("握手完成",
		"pattern", e.cfg.Pattern.String(),
		"peerPattern", peer.Pattern.String(),
		"peerIdentity", log.TruncateID(peer.Identity.String(), 8))
	return peer, nil
}

// readReady 读取并解析对端 READY 命令
func (e *Engine) readReady(conn interfaces.Conn) (Properties, error) {
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return Properties{}, fmt.Errorf("读取 READY 失败: %w", err)
		}
		items, err := e.dec.Feed(buf[:n])
		if err != nil {
			return Properties{}, err
		}
		for _, it := range items {
			switch {
			case it.Cmd == nil:
				return Properties{}, ErrHandshakeState
			case it.Cmd.Name == CmdReady:
				return ParseReadyBody(it.Cmd.Body)
			case it.Cmd.Name == CmdError:
				return Properties{}, fmt.Errorf("%w: %s", ErrPeerError, it.Cmd.Body)
			default:
				return Properties{}, fmt.Errorf("%w: 握手期命令 %q", ErrBadCommand, it.Cmd.Name)
			}
		}
	}
}

// WriteError 尽力向对端发送 ERROR 命令
//
// 发送失败不再处理，连接随后总会被拆除。
func (e *Engine) WriteError(w io.Writer, reason string) {
	_, _ = w.Write(AppendCommand(nil, &Command{Name: CmdError, Body: []byte(reason)}))
}

// ============================================================================
//                              活跃期编解码
// ============================================================================

// EncodeMessage 把消息编码为线路字节
//
// 返回的切片复用引擎内部缓冲，下次调用前有效；仅写循环调用。
func (e *Engine) EncodeMessage(m *types.Message) []byte {
	e.wbuf = AppendMessage(e.wbuf[:0], m)
	return e.wbuf
}

// Feed 吸收入站字节，吐出完整消息
//
// 活跃期收到 ERROR 命令视为对端致命通告；
// 其余命令在当前版本中属协议错误。
func (e *Engine) Feed(data []byte) ([]*types.Message, error) {
	items, err := e.dec.Feed(data)
	msgs := make([]*types.Message, 0, len(items))
	for _, it := range items {
		if it.Msg != nil {
			msgs = append(msgs, it.Msg)
			continue
		}
		switch it.Cmd.Name {
		case CmdError:
			return msgs, fmt.Errorf("%w: %s", ErrPeerError, it.Cmd.Body)
		default:
			return msgs, fmt.Errorf("%w: 活跃期命令 %q", ErrBadCommand, it.Cmd.Name)
		}
	}
	return msgs, err
}
