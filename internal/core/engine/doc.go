// Package engine 实现每连接的线路协议状态机
//
// 引擎把字节流变成离散的多帧消息，反之亦然：
//
//	encode(message) → 字节序列
//	feed(bytes)     → 零或多条完整消息/命令
//
// 连接建立后首先交换固定 32 字节的问候（签名 + 版本 + 机制标识），
// 随后运行可插拔认证机制握手，再交换 READY 命令协商模式与路由标识。
// 签名或主版本不匹配对该连接致命（拆除连接，不影响进程）。
//
// 帧格式：标志字节（MORE/LONG/COMMAND 位）+ 长度（短帧 1 字节，
// 长帧 8 字节大端）+ 载荷。接收端缓冲续帧直到 MORE 位清零，
// 再按帧逐一保留地吐出整条逻辑消息。
//
// 订阅/退订等模式簿记走普通数据帧，以载荷首字节为标记区分，
// 不占用独立通道。
package engine
