// Package wiremq 是一个无中介（broker-less）的异步消息库。
//
// 应用之间直接建立连接，按六种消息模式交换多帧消息：
// PUB/SUB（主题扇出）、REQ/REP（严格问答）、ROUTER/DEALER
// （显式寻址与负载均衡）。传输层可插拔，内建 tcp、ipc、
// inproc 与 ws 四种 scheme。
//
// 快速上手：
//
//	ctx, err := wiremq.New()
//	if err != nil {
//		panic(err)
//	}
//	defer ctx.Terminate(context.Background())
//
//	pub, _ := ctx.NewSocket(wiremq.Pub)
//	_ = pub.Bind("tcp://127.0.0.1:5555")
//
//	sub, _ := ctx.NewSocket(wiremq.Sub)
//	_ = sub.Connect("tcp://127.0.0.1:5555")
//	_ = sub.(wiremq.SubSocket).Subscribe([]byte("weather"))
//
//	_ = pub.Send(context.Background(),
//		wiremq.NewMessageFrames([]byte("weather/oslo"), []byte("-3C")))
//
// 核心不变量：
//   - 同一连接上的消息按入队顺序交付（FIFO），多帧消息原子交付；
//   - 每条管道有高/低水位流控，高水位触发的行为由背压策略决定；
//   - 连接断开自动指数退避重连，重连期间消息至多一次交付；
//   - Send/Recv 只阻塞调用方，从不阻塞 I/O 线程。
package wiremq
