package wiremq

import (
	"github.com/wiremq/go-wiremq/pkg/interfaces"
	"github.com/wiremq/go-wiremq/pkg/types"
)

// Version 库版本
const Version = "0.1.0"

// ============================================================================
//                              类型转发
// ============================================================================

// 消息模式（转发自 pkg/types）
const (
	Pub    = types.PatternPub
	Sub    = types.PatternSub
	Req    = types.PatternReq
	Rep    = types.PatternRep
	Router = types.PatternRouter
	Dealer = types.PatternDealer
)

// Message 多帧消息
type Message = types.Message

// Identity 对端路由标识
type Identity = types.Identity

// Pattern 消息模式
type Pattern = types.Pattern

// Backpressure 高水位策略
type Backpressure = types.Backpressure

// 高水位策略取值
const (
	Block = types.BackpressureBlock
	Drop  = types.BackpressureDrop
	Fail  = types.BackpressureFail
)

// Socket 用户侧消息端点
type Socket = interfaces.Socket

// SubSocket 订阅者套接字的扩展契约
type SubSocket = interfaces.SubSocket

// NewMessage 创建单帧消息
func NewMessage(data []byte) *Message { return types.NewMessage(data) }

// NewMessageFrames 创建多帧消息
func NewMessageFrames(frames ...[]byte) *Message { return types.NewMessageFrames(frames...) }

// NewMessageString 创建单帧文本消息
func NewMessageString(s string) *Message { return types.NewMessageString(s) }
