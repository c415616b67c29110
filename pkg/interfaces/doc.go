// Package interfaces 定义 WireMQ 各组件之间的契约
//
// 核心通过这些接口与外部协作者交互：
//   - Socket：用户侧端点，承载模式化的发送/接收语义
//   - Transport / Listener / Conn：可插拔传输层
//   - Mechanism：握手期间调用的可插拔认证机制
//
// 实现位于 internal/core/*，通过根包的 fx 模块装配。
package interfaces
