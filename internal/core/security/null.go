package security

import (
	"context"
	"io"

	"github.com/wiremq/go-wiremq/pkg/interfaces"
)

// ============================================================================
//                              NULL 机制
// ============================================================================

// MechanismNull NULL 机制名
const MechanismNull = "NULL"

// Null 无认证机制
type Null struct{}

// 确保实现接口
var _ interfaces.Mechanism = Null{}

// NewNull 创建 NULL 机制
func NewNull() Null { return Null{} }

// Name 返回机制名
func (Null) Name() string { return MechanismNull }

// Handshake 空操作
func (Null) Handshake(_ context.Context, _ io.ReadWriter, _ bool) error {
	return nil
}
