package types

// ============================================================================
//                              消息模式
// ============================================================================

// Pattern 消息模式
//
// 封闭枚举：模式集合是固定且可穷举的，路由与过滤行为
// 由模式标签在单一 Socket 契约下分派，不做开放式继承。
type Pattern uint8

const (
	// PatternPub 发布者：按订阅前缀扇出，无回路
	PatternPub Pattern = iota + 1

	// PatternSub 订阅者：按前缀过滤接收，不可发送
	PatternSub

	// PatternReq 请求者：发送/接收严格交替
	PatternReq

	// PatternRep 应答者：接收/发送严格交替，原管道回复
	PatternRep

	// PatternRouter 路由者：显式标识寻址
	PatternRouter

	// PatternDealer 经销者：轮询负载均衡 + 公平队列
	PatternDealer
)

// String 返回模式名称（亦用于 READY 命令协商）
func (p Pattern) String() string {
	switch p {
	case PatternPub:
		return "PUB"
	case PatternSub:
		return "SUB"
	case PatternReq:
		return "REQ"
	case PatternRep:
		return "REP"
	case PatternRouter:
		return "ROUTER"
	case PatternDealer:
		return "DEALER"
	default:
		return "UNKNOWN"
	}
}

// ParsePattern 从名称解析模式
func ParsePattern(s string) (Pattern, bool) {
	switch s {
	case "PUB":
		return PatternPub, true
	case "SUB":
		return PatternSub, true
	case "REQ":
		return PatternReq, true
	case "REP":
		return PatternRep, true
	case "ROUTER":
		return PatternRouter, true
	case "DEALER":
		return PatternDealer, true
	default:
		return 0, false
	}
}

// Valid 检查模式是否在封闭集合内
func (p Pattern) Valid() bool {
	return p >= PatternPub && p <= PatternDealer
}

// 模式兼容表
//
// 键为本端模式，值为允许的对端模式集合。
// 握手 READY 交换后双方各自校验，不兼容即拆除连接。
var compatible = map[Pattern][]Pattern{
	PatternPub:    {PatternSub},
	PatternSub:    {PatternPub},
	PatternReq:    {PatternRep, PatternRouter},
	PatternRep:    {PatternReq, PatternDealer},
	PatternRouter: {PatternReq, PatternDealer},
	PatternDealer: {PatternRep, PatternRouter, PatternDealer},
}

// CompatibleWith 检查对端模式是否与本端兼容
func (p Pattern) CompatibleWith(peer Pattern) bool {
	for _, c := range compatible[p] {
		if c == peer {
			return true
		}
	}
	return false
}

// CanSend 模式是否支持发送
func (p Pattern) CanSend() bool {
	return p != PatternSub
}

// CanRecv 模式是否支持接收
func (p Pattern) CanRecv() bool {
	return p != PatternPub
}
