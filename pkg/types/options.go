package types

import "time"

// ============================================================================
//                              背压策略
// ============================================================================

// Backpressure 高水位触发时的发送策略
type Backpressure uint8

const (
	// BackpressureBlock 挂起调用方直至恢复额度（受发送超时约束）
	//
	// 当同时配置了发送超时，策略仍决定行为模式：block 在超时窗口内
	// 等待额度，超时返回 ErrTimeout；drop/fail 从不等待，超时对其无效。
	BackpressureBlock Backpressure = iota

	// BackpressureDrop 丢弃最新消息，调用立即成功
	BackpressureDrop

	// BackpressureFail 立即返回容量错误
	BackpressureFail
)

// String 返回策略名称
func (b Backpressure) String() string {
	switch b {
	case BackpressureBlock:
		return "block"
	case BackpressureDrop:
		return "drop"
	case BackpressureFail:
		return "fail"
	default:
		return "unknown"
	}
}

// ============================================================================
//                              套接字选项键
// ============================================================================

// 套接字选项键，用于 Socket.SetOption / GetOption
const (
	// OptionHWM 高水位：触发背压前可缓冲的消息数（int）
	OptionHWM = "high_water_mark"

	// OptionLWM 低水位：恢复发送的滞回阈值（int，默认 HWM/2）
	OptionLWM = "low_water_mark"

	// OptionLinger 关闭时排空在途消息的最长时间（time.Duration，
	// 0 立即关闭，负值无限等待）
	OptionLinger = "linger"

	// OptionReconnectInterval 重连退避的初始间隔（time.Duration）
	OptionReconnectInterval = "reconnect_interval"

	// OptionReconnectIntervalMax 重连退避的间隔上限（time.Duration）
	OptionReconnectIntervalMax = "reconnect_interval_max"

	// OptionSendTimeout 阻塞发送的截止时长（time.Duration，
	// 负值永久阻塞，0 等价于非阻塞）
	OptionSendTimeout = "send_timeout"

	// OptionRecvTimeout 阻塞接收的截止时长（time.Duration）
	OptionRecvTimeout = "receive_timeout"

	// OptionIdentity 对端可见的路由标识（Identity 或 []byte）
	OptionIdentity = "identity"

	// OptionBackpressure 高水位策略（Backpressure）
	OptionBackpressure = "backpressure"
)

// 选项默认值
const (
	// DefaultHWM 默认高水位
	DefaultHWM = 1000

	// DefaultLinger 默认排空时长
	DefaultLinger = time.Second

	// DefaultReconnectInterval 默认重连初始间隔
	DefaultReconnectInterval = 100 * time.Millisecond

	// DefaultReconnectIntervalMax 默认重连间隔上限
	DefaultReconnectIntervalMax = 30 * time.Second
)
