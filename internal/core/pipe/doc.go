// Package pipe 实现套接字与连接会话之间的双向流控队列
//
// 一个 Pair 由两条单向环形队列组成，分别承载两个方向的消息，
// 并在反方向交换信用（credit）实现背压：
//
//	套接字端 ──消息──▶ I/O 端        （出站环）
//	套接字端 ◀──消息── I/O 端        （入站环）
//
// 每条环严格单生产者/单消费者，快速路径只依赖一对原子游标
// （写入位置 wpos 与读者确认位置 rack），无锁无等待：
//   - 写者可见额度 = HWM − (wpos − rack)，额度耗尽即拒绝入队，
//     绝不静默越过高水位；
//   - 读者只在未确认数量达到 HWM−LWM 时才发布 rack（滞回），
//     避免在恰好 HWM 处反复振荡。
//
// 唤醒通知走容量为 1 的非阻塞通道，另可挂接回调供套接字端
// 汇聚到就绪队列。阻塞/丢弃/失败的背压策略由套接字按模式施加，
// 本包只提供 TryEnqueue 语义。
package pipe
