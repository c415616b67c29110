// Package types 定义 WireMQ 的基础值类型
//
// 本包只包含纯数据类型与常量，不依赖任何实现包：
//   - Message：一条逻辑消息（可能包含多个线路帧）
//   - Pattern：消息模式（PUB/SUB/REQ/REP/ROUTER/DEALER）
//   - Identity：ROUTER/DEALER 模式下的对端路由标识
//   - 套接字选项键与背压策略
//
// 实现包（internal/core/*）与接口包（pkg/interfaces）依赖本包，
// 本包不反向依赖它们。
package types
