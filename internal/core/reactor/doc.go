// Package reactor 实现 I/O 工作线程池与连接会话管理。
//
// 固定数量的 ioThread 构成线程池，每条连接（会话）在建立时被钉定
// 到其中一个线程，终生不迁移，以保证单连接内的 FIFO 顺序。线程间
// 通过命令队列（函数通道）传递生命周期操作，避免共享状态加锁。
//
// 就绪多路复用委托给 Go 运行时的网络轮询器：会话的读写循环各占
// 一个 goroutine，阻塞在 Conn.Read / Conn.Write 上即等同于等待
// 就绪事件。背压通过停读传导——入站管道满时读循环暂停 Read，
// 直至套接字侧消费归还额度，TCP 窗口随之收缩。
//
// 出站连接由 connecter 维护：传输错误后按指数退避加全抖动重拨，
// 每次重连建立全新的管道对（在途消息至多一次交付）。入站连接
// 出错即丢弃，由对端负责重连。
package reactor
