package security

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/wiremq/go-wiremq/pkg/interfaces"
)

// ============================================================================
//                              PLAIN 机制
// ============================================================================

// MechanismPlain PLAIN 机制名
const MechanismPlain = "PLAIN"

var (
	// ErrAuthFailed 服务端拒绝凭据
	ErrAuthFailed = errors.New("authentication failed")

	// ErrNoValidator 服务端未配置校验回调
	ErrNoValidator = errors.New("plain mechanism requires a validator on server side")

	// ErrCredentialTooLong 凭据超过单字节长度前缀上限
	ErrCredentialTooLong = errors.New("credential exceeds 255 bytes")
)

// Validator 服务端凭据校验回调
type Validator func(username, password string) bool

// Plain 明文凭据机制
//
// 客户端发送 HELLO（1 字节用户名长 + 用户名 + 1 字节口令长 + 口令），
// 服务端以单字节裁决应答（0 通过，非 0 拒绝）。
// 仅做认证，不加密通道。
type Plain struct {
	username string
	password string
	validate Validator
}

// 确保实现接口
var _ interfaces.Mechanism = (*Plain)(nil)

// NewPlainClient 创建客户端 PLAIN 机制
func NewPlainClient(username, password string) *Plain {
	return &Plain{username: username, password: password}
}

// NewPlainServer 创建服务端 PLAIN 机制
func NewPlainServer(validate Validator) *Plain {
	return &Plain{validate: validate}
}

// Name 返回机制名
func (*Plain) Name() string { return MechanismPlain }

// Handshake 执行 PLAIN 握手
func (p *Plain) Handshake(ctx context.Context, rw io.ReadWriter, server bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if server {
		return p.handshakeServer(rw)
	}
	return p.handshakeClient(rw)
}

func (p *Plain) handshakeClient(rw io.ReadWriter) error {
	if len(p.username) > 255 || len(p.password) > 255 {
		return ErrCredentialTooLong
	}

	hello := make([]byte, 0, 2+len(p.username)+len(p.password))
	hello = append(hello, byte(len(p.username)))
	hello = append(hello, p.username...)
	hello = append(hello, byte(len(p.password)))
	hello = append(hello, p.password...)
	if _, err := rw.Write(hello); err != nil {
		return fmt.Errorf("写入凭据失败: %w", err)
	}

	var verdict [1]byte
	if _, err := io.ReadFull(rw, verdict[:]); err != nil {
		return fmt.Errorf("读取裁决失败: %w", err)
	}
	if verdict[0] != 0 {
		return ErrAuthFailed
	}
	return nil
}

func (p *Plain) handshakeServer(rw io.ReadWriter) error {
	if p.validate == nil {
		return ErrNoValidator
	}

	username, err := readLenPrefixed(rw)
	if err != nil {
		return fmt.Errorf("读取用户名失败: %w", err)
	}
	password, err := readLenPrefixed(rw)
	if err != nil {
		return fmt.Errorf("读取口令失败: %w", err)
	}

	if !p.validate(string(username), string(password)) {
		_, _ = rw.Write([]byte{1})
		return ErrAuthFailed
	}
	_, err = rw.Write([]byte{0})
	return err
}

func readLenPrefixed(r io.Reader) ([]byte, error) {
	var l [1]byte
	if _, err := io.ReadFull(r, l[:]); err != nil {
		return nil, err
	}
	buf := make([]byte, l[0])
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
