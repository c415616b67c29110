package reactor

import (
	"time"

	"github.com/wiremq/go-wiremq/internal/core/engine"
	"github.com/wiremq/go-wiremq/internal/core/pipe"
	"github.com/wiremq/go-wiremq/pkg/interfaces"
	"github.com/wiremq/go-wiremq/pkg/types"
)

// Attacher 会话的归属方
//
// 由套接字实现。反应器在握手成功后通过 Attach 把管道的套接字端
// 交给归属方，传输终止后通过 Detach 收回。接口定义在反应器侧，
// 避免套接字包与反应器包相互引用。
type Attacher interface {
	// Pattern 本端消息模式，写入 READY 命令
	Pattern() types.Pattern

	// Identity 本端路由标识，可为空
	Identity() types.Identity

	// Security 握手使用的认证机制
	Security() interfaces.Mechanism

	// PipeLimits 新建管道的高低水位
	PipeLimits() (hwm, lwm int)

	// Backoff 重连退避的初始间隔与上限
	Backoff() (base, max time.Duration)

	// Attach 接收新会话的管道套接字端与对端属性
	Attach(end *pipe.End, peer engine.Properties)

	// Detach 会话终止，收回管道端
	Detach(end *pipe.End)
}
