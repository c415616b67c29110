package types

// ============================================================================
//                              消息
// ============================================================================

// Message 一条逻辑消息
//
// 一条逻辑消息由一个或多个帧组成，线路上的续帧标志由帧在 Frames
// 中的位置隐含（除最后一帧外均置 MORE 位）。消息按指针在队列之间
// 移动，所有权随之转移；PUB 扇出时复制 Message 头而共享帧字节切片，
// 帧内容在发送后视为不可变。
type Message struct {
	// Frames 消息帧，至少一个
	Frames [][]byte

	// Identity 路由元数据
	//
	// ROUTER 套接字在收到消息时填入来源对端标识；
	// 其余模式下为空。
	Identity Identity
}

// NewMessage 创建单帧消息
func NewMessage(data []byte) *Message {
	return &Message{Frames: [][]byte{data}}
}

// NewMessageFrames 创建多帧消息
func NewMessageFrames(frames ...[]byte) *Message {
	return &Message{Frames: frames}
}

// NewMessageString 创建单帧文本消息
func NewMessageString(s string) *Message {
	return NewMessage([]byte(s))
}

// Size 返回所有帧的字节总数
func (m *Message) Size() int {
	n := 0
	for _, f := range m.Frames {
		n += len(f)
	}
	return n
}

// Bytes 返回首帧内容
//
// 单帧消息的便捷访问方式；空消息返回 nil。
func (m *Message) Bytes() []byte {
	if len(m.Frames) == 0 {
		return nil
	}
	return m.Frames[0]
}

// Clone 复制消息头并共享帧内容
//
// 用于 PUB 扇出：每个订阅者管道持有独立的 Message，
// 帧字节切片以共享不可变缓冲的方式引用，不做深拷贝。
func (m *Message) Clone() *Message {
	frames := make([][]byte, len(m.Frames))
	copy(frames, m.Frames)
	return &Message{Frames: frames, Identity: m.Identity}
}

// ============================================================================
//                              路由标识
// ============================================================================

// Identity 对端路由标识
//
// ROUTER 套接字以此寻址具体对端；为空表示未设置。
// 长度上限 255 字节（线路编码为单字节长度前缀）。
type Identity []byte

// MaxIdentityLen 路由标识最大长度
const MaxIdentityLen = 255

// String 返回字符串形式
func (id Identity) String() string {
	return string(id)
}

// Empty 检查标识是否为空
func (id Identity) Empty() bool {
	return len(id) == 0
}

// Equal 比较两个标识是否相等
func (id Identity) Equal(other Identity) bool {
	return string(id) == string(other)
}
