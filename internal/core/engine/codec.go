package engine

import (
	"encoding/binary"
	"fmt"

	"github.com/wiremq/go-wiremq/pkg/types"
)

// ============================================================================
//                              帧编码
// ============================================================================

// 帧标志位
const (
	// FlagMore 续帧：同一逻辑消息还有后续帧
	FlagMore byte = 0x01

	// FlagLong 长帧：长度字段为 8 字节大端
	FlagLong byte = 0x02

	// FlagCommand 命令帧：协议簿记，不进入消息流
	FlagCommand byte = 0x04

	flagsKnown = FlagMore | FlagLong | FlagCommand
)

// 订阅控制标记（普通数据帧载荷的首字节，SUB → PUB 方向）
const (
	// UnsubscribeMarker 退订标记
	UnsubscribeMarker byte = 0x00

	// SubscribeMarker 订阅标记
	SubscribeMarker byte = 0x01
)

// DefaultMaxFrameSize 默认单帧长度上限
const DefaultMaxFrameSize = 64 << 20

// shortFrameMax 短帧载荷上限（1 字节长度）
const shortFrameMax = 255

// AppendFrame 追加一帧到 dst
//
// 载荷不超过 255 字节用短帧形式，否则自动置 LONG 位。
func AppendFrame(dst []byte, flags byte, payload []byte) []byte {
	if len(payload) > shortFrameMax {
		flags |= FlagLong
		dst = append(dst, flags)
		var l [8]byte
		binary.BigEndian.PutUint64(l[:], uint64(len(payload)))
		dst = append(dst, l[:]...)
	} else {
		dst = append(dst, flags&^FlagLong, byte(len(payload)))
	}
	return append(dst, payload...)
}

// AppendMessage 把整条逻辑消息编码为帧序列追加到 dst
//
// 除最后一帧外均置 MORE 位，逐帧保留消息结构。
func AppendMessage(dst []byte, m *types.Message) []byte {
	last := len(m.Frames) - 1
	for i, f := range m.Frames {
		var flags byte
		if i != last {
			flags = FlagMore
		}
		dst = AppendFrame(dst, flags, f)
	}
	return dst
}

// ============================================================================
//                              帧解码
// ============================================================================

// Item 解码产物：消息或命令，二者其一非空
type Item struct {
	Msg *types.Message
	Cmd *Command
}

// Decoder 增量帧解码器
//
// 吸收任意切分的字节流，缓冲续帧直到 MORE 位清零，
// 然后吐出整条消息。命令帧即时吐出，可与消息帧交错，
// 但不会打断进行中的多帧消息装配。
type Decoder struct {
	maxFrame uint64

	buf    []byte   // 未消费字节
	frames [][]byte // 进行中的消息帧
}

// NewDecoder 创建解码器，maxFrame 为 0 时使用默认上限
func NewDecoder(maxFrame uint64) *Decoder {
	if maxFrame == 0 {
		maxFrame = DefaultMaxFrameSize
	}
	return &Decoder{maxFrame: maxFrame}
}

// Feed 吸收字节并吐出完整的消息与命令
//
// 协议错误（非法标志、超长帧、命令带 MORE 位）不可恢复，
// 调用方应拆除连接。
func (d *Decoder) Feed(data []byte) ([]Item, error) {
	d.buf = append(d.buf, data...)

	var items []Item
	off := 0
	for {
		frame, flags, n, err := d.next(d.buf[off:])
		if err != nil {
			return items, err
		}
		if n == 0 {
			break
		}
		off += n

		if flags&FlagCommand != 0 {
			if flags&FlagMore != 0 {
				return items, fmt.Errorf("%w: 命令帧不允许 MORE 位", ErrBadFrame)
			}
			cmd, err := ParseCommand(frame)
			if err != nil {
				return items, err
			}
			items = append(items, Item{Cmd: cmd})
			continue
		}

		d.frames = append(d.frames, frame)
		if flags&FlagMore == 0 {
			items = append(items, Item{Msg: &types.Message{Frames: d.frames}})
			d.frames = nil
		}
	}

	// 压缩缓冲，保留未消费的尾部
	if off > 0 {
		d.buf = append(d.buf[:0], d.buf[off:]...)
	}
	return items, nil
}

// next 尝试从 b 中解析一帧
//
// 返回载荷副本、标志与消耗的字节数；数据不足时 n 为 0。
func (d *Decoder) next(b []byte) (payload []byte, flags byte, n int, err error) {
	if len(b) < 1 {
		return nil, 0, 0, nil
	}
	flags = b[0]
	if flags&^flagsKnown != 0 {
		return nil, 0, 0, fmt.Errorf("%w: 未知标志 %#02x", ErrBadFrame, flags)
	}

	var length uint64
	header := 2
	if flags&FlagLong != 0 {
		header = 9
		if len(b) < header {
			return nil, 0, 0, nil
		}
		length = binary.BigEndian.Uint64(b[1:9])
	} else {
		if len(b) < header {
			return nil, 0, 0, nil
		}
		length = uint64(b[1])
	}

	if length > d.maxFrame {
		return nil, 0, 0, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, length, d.maxFrame)
	}
	total := header + int(length)
	if len(b) < total {
		return nil, 0, 0, nil
	}

	// 载荷复制为独立所有权，解码缓冲随后会被压缩复用
	payload = make([]byte, length)
	copy(payload, b[header:total])
	return payload, flags, total, nil
}

// Pending 是否存在装配中的消息帧
func (d *Decoder) Pending() bool {
	return len(d.frames) > 0 || len(d.buf) > 0
}
