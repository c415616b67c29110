// Package socket 实现六种消息模式的套接字。
//
// Base 承载全部模式共享的机制：选项存储、管道挂接与收回、
// 公平接收队列（边沿触发 + 去重标记）、背压策略下的阻塞发送、
// linger 排空关闭。各模式类型内嵌 *Base，只实现自己的路由
// 与状态机：
//
//	PUB    按订阅树扇出，订阅者满额即丢
//	SUB    本地过滤 + 向发布端同步订阅控制帧
//	REQ    严格请求/应答交替，自动加空分隔帧
//	REP    保存请求信封，应答原路返回
//	ROUTER 首帧显式寻址，按对端标识选管道
//	DEALER 轮转负载均衡，跳过满额管道
//
// 套接字实现 reactor.Attacher，由反应器在握手完成后把管道的
// 套接字端挂进来；所有 Send/Recv 只阻塞调用方，从不阻塞 I/O 线程。
package socket
