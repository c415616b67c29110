package engine

import (
	"bytes"
	"fmt"
)

// ============================================================================
//                              问候
// ============================================================================

// 线路协议常量
const (
	// GreetingSize 问候固定长度
	GreetingSize = 32

	// VersionMajor 协议主版本，不一致对连接致命
	VersionMajor byte = 1

	// VersionMinor 协议次版本，仅作通告
	VersionMinor byte = 0

	// mechanismSize 机制名字段长度（NUL 填充）
	mechanismSize = 20
)

// 问候签名：哨兵字节 + "WMQ"
var signature = [4]byte{0xFF, 'W', 'M', 'Q'}

// Greeting 连接问候
//
// 布局（共 32 字节）：
//
//	0      0xFF 哨兵
//	1..3   "WMQ"
//	4      主版本
//	5      次版本
//	6..25  机制名，NUL 填充
//	26     as-server 标志
//	27..31 保留，必须为零
type Greeting struct {
	Major     byte
	Minor     byte
	Mechanism string
	AsServer  bool
}

// NewGreeting 以当前协议版本创建问候
func NewGreeting(mechanism string, asServer bool) Greeting {
	return Greeting{
		Major:     VersionMajor,
		Minor:     VersionMinor,
		Mechanism: mechanism,
		AsServer:  asServer,
	}
}

// Encode 编码为固定长度字节
func (g Greeting) Encode() []byte {
	buf := make([]byte, GreetingSize)
	copy(buf[0:4], signature[:])
	buf[4] = g.Major
	buf[5] = g.Minor
	copy(buf[6:6+mechanismSize], g.Mechanism)
	if g.AsServer {
		buf[26] = 1
	}
	return buf
}

// ParseGreeting 解析问候
//
// 签名非法返回 ErrBadGreeting，主版本不一致返回 ErrVersionMismatch；
// 两者均对该连接致命。次版本差异被容忍。
func ParseGreeting(buf []byte) (Greeting, error) {
	if len(buf) != GreetingSize {
		return Greeting{}, fmt.Errorf("%w: 长度 %d", ErrBadGreeting, len(buf))
	}
	if !bytes.Equal(buf[0:4], signature[:]) {
		return Greeting{}, ErrBadGreeting
	}
	if buf[4] != VersionMajor {
		return Greeting{}, fmt.Errorf("%w: 本端 %d 对端 %d", ErrVersionMismatch, VersionMajor, buf[4])
	}

	mech := buf[6 : 6+mechanismSize]
	if i := bytes.IndexByte(mech, 0); i >= 0 {
		mech = mech[:i]
	}

	return Greeting{
		Major:     buf[4],
		Minor:     buf[5],
		Mechanism: string(mech),
		AsServer:  buf[26] == 1,
	}, nil
}
