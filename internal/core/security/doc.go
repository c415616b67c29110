// Package security 提供内建认证机制
//
// 机制在问候交换之后、READY 命令之前由引擎调用（契约见
// pkg/interfaces.Mechanism）：
//   - NULL：无认证，空操作握手
//   - PLAIN：明文用户名/口令，服务端回调校验
//
// 机制只负责认证，不做传输加密；加密传输作为外部协作者
// 以相同契约接入。认证失败对该连接致命，不影响进程。
package security
