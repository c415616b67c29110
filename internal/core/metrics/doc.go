// Package metrics 提供消息层的 Prometheus 指标。
//
// 所有指标通过 Collector 统一注册与更新，会话循环与套接字
// 在热路径上只做原子计数，不持锁。传入 nil Registerer 时
// Collector 退化为空操作，便于测试与嵌入场景。
package metrics
