// Package transport 提供传输层注册表与地址解析
//
// 每种传输（tcp、ipc、inproc、ws）实现 pkg/interfaces.Transport
// 并按地址 scheme 注册；核心按 "scheme://endpoint" 形式的地址
// 选择传输，不感知物理介质差异。
//
// 注册表随 Context 创建，inproc 命名空间亦以 Context 为边界，
// 不同 Context 之间的 inproc 地址互不可见。
package transport
