package engine

import (
	"fmt"

	"github.com/multiformats/go-varint"

	"github.com/wiremq/go-wiremq/pkg/types"
)

// ============================================================================
//                              命令帧
// ============================================================================

// 命令名
const (
	// CmdReady 握手就绪：携带模式与路由标识属性
	CmdReady = "READY"

	// CmdError 致命错误通告：体为原因文本，发送后连接拆除
	CmdError = "ERROR"
)

// READY 属性键
const (
	propPattern  = "Pattern"
	propIdentity = "Identity"
)

// Command 一条协议命令
type Command struct {
	Name string
	Body []byte
}

// AppendCommand 把命令编码为命令帧追加到 dst
//
// 载荷布局：1 字节命令名长度 + 命令名 + 命令体。
func AppendCommand(dst []byte, c *Command) []byte {
	payload := make([]byte, 0, 1+len(c.Name)+len(c.Body))
	payload = append(payload, byte(len(c.Name)))
	payload = append(payload, c.Name...)
	payload = append(payload, c.Body...)
	return AppendFrame(dst, FlagCommand, payload)
}

// ParseCommand 解析命令帧载荷
func ParseCommand(payload []byte) (*Command, error) {
	if len(payload) < 1 {
		return nil, fmt.Errorf("%w: 空载荷", ErrBadCommand)
	}
	nameLen := int(payload[0])
	if nameLen == 0 || len(payload) < 1+nameLen {
		return nil, fmt.Errorf("%w: 命令名长度 %d", ErrBadCommand, nameLen)
	}
	return &Command{
		Name: string(payload[1 : 1+nameLen]),
		Body: payload[1+nameLen:],
	}, nil
}

// ============================================================================
//                              READY 属性
// ============================================================================

// Properties READY 命令协商出的连接属性
type Properties struct {
	// Pattern 对端消息模式
	Pattern types.Pattern

	// Identity 对端通告的路由标识，可为空
	Identity types.Identity
}

// EncodeReadyBody 编码 READY 命令体
//
// 每个属性：1 字节键长 + 键 + uvarint 值长 + 值。
func EncodeReadyBody(p Properties) []byte {
	var body []byte
	body = appendProperty(body, propPattern, []byte(p.Pattern.String()))
	if !p.Identity.Empty() {
		body = appendProperty(body, propIdentity, p.Identity)
	}
	return body
}

func appendProperty(dst []byte, key string, value []byte) []byte {
	dst = append(dst, byte(len(key)))
	dst = append(dst, key...)
	dst = append(dst, varint.ToUvarint(uint64(len(value)))...)
	return append(dst, value...)
}

// ParseReadyBody 解析 READY 命令体
//
// 未知属性键被忽略，便于次版本前向扩展。
func ParseReadyBody(body []byte) (Properties, error) {
	var p Properties
	for len(body) > 0 {
		keyLen := int(body[0])
		if keyLen == 0 || len(body) < 1+keyLen {
			return p, fmt.Errorf("%w: 属性键长度 %d", ErrBadCommand, keyLen)
		}
		key := string(body[1 : 1+keyLen])
		body = body[1+keyLen:]

		valLen, n, err := varint.FromUvarint(body)
		if err != nil {
			return p, fmt.Errorf("%w: 属性值长度: %v", ErrBadCommand, err)
		}
		body = body[n:]
		if uint64(len(body)) < valLen {
			return p, fmt.Errorf("%w: 属性值截断", ErrBadCommand)
		}
		value := body[:valLen]
		body = body[valLen:]

		switch key {
		case propPattern:
			pat, ok := types.ParsePattern(string(value))
			if !ok {
				return p, fmt.Errorf("%w: 未知模式 %q", ErrBadCommand, value)
			}
			p.Pattern = pat
		case propIdentity:
			if len(value) > types.MaxIdentityLen {
				return p, fmt.Errorf("%w: 标识过长 %d", ErrBadCommand, len(value))
			}
			p.Identity = types.Identity(append([]byte(nil), value...))
		default:
			// 未知属性忽略
		}
	}
	if !p.Pattern.Valid() {
		return p, fmt.Errorf("%w: READY 缺少 Pattern 属性", ErrBadCommand)
	}
	return p, nil
}
