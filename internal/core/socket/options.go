package socket

import (
	"fmt"
	"time"

	"github.com/wiremq/go-wiremq/internal/core/security"
	"github.com/wiremq/go-wiremq/pkg/interfaces"
	"github.com/wiremq/go-wiremq/pkg/types"
)

// ============================================================================
//                              选项
// ============================================================================

// Options 套接字选项集合
type Options struct {
	HWM          int
	LWM          int // 0 表示 HWM/2
	Linger       time.Duration
	ReconnectInterval    time.Duration
	ReconnectIntervalMax time.Duration
	SendTimeout  time.Duration // 负值永久阻塞，0 非阻塞
	RecvTimeout  time.Duration
	Identity     types.Identity
	Backpressure types.Backpressure
	Mechanism    interfaces.Mechanism
}

// DefaultOptions 返回默认选项
func DefaultOptions() Options {
	return Options{
		HWM:                  types.DefaultHWM,
		Linger:               types.DefaultLinger,
		ReconnectInterval:    types.DefaultReconnectInterval,
		ReconnectIntervalMax: types.DefaultReconnectIntervalMax,
		SendTimeout:          -1,
		RecvTimeout:          -1,
		Backpressure:         types.BackpressureBlock,
		Mechanism:            security.NewNull(),
	}
}

// set 按键名设置选项，值类型不符返回错误
func (o *Options) set(name string, value any) error {
	switch name {
	case types.OptionHWM:
		v, ok := value.(int)
		if !ok || v <= 0 {
			return fmt.Errorf("%w: %s 需要正整数", ErrBadOption, name)
		}
		o.HWM = v
	case types.OptionLWM:
		v, ok := value.(int)
		if !ok || v < 0 {
			return fmt.Errorf("%w: %s 需要非负整数", ErrBadOption, name)
		}
		o.LWM = v
	case types.OptionLinger:
		v, ok := value.(time.Duration)
		if !ok {
			return fmt.Errorf("%w: %s 需要 time.Duration", ErrBadOption, name)
		}
		o.Linger = v
	case types.OptionReconnectInterval:
		v, ok := value.(time.Duration)
		if !ok || v <= 0 {
			return fmt.Errorf("%w: %s 需要正时长", ErrBadOption, name)
		}
		o.ReconnectInterval = v
	case types.OptionReconnectIntervalMax:
		v, ok := value.(time.Duration)
		if !ok || v <= 0 {
			return fmt.Errorf("%w: %s 需要正时长", ErrBadOption, name)
		}
		o.ReconnectIntervalMax = v
	case types.OptionSendTimeout:
		v, ok := value.(time.Duration)
		if !ok {
			return fmt.Errorf("%w: %s 需要 time.Duration", ErrBadOption, name)
		}
		o.SendTimeout = v
	case types.OptionRecvTimeout:
		v, ok := value.(time.Duration)
		if !ok {
			return fmt.Errorf("%w: %s 需要 time.Duration", ErrBadOption, name)
		}
		o.RecvTimeout = v
	case types.OptionIdentity:
		var id types.Identity
		switch v := value.(type) {
		case types.Identity:
			id = v
		case []byte:
			id = types.Identity(v)
		case string:
			id = types.Identity(v)
		default:
			return fmt.Errorf("%w: %s 需要 Identity 或 []byte", ErrBadOption, name)
		}
		if len(id) > types.MaxIdentityLen {
			return fmt.Errorf("%w: 标识长度超过 %d", ErrBadOption, types.MaxIdentityLen)
		}
		o.Identity = id
	case types.OptionBackpressure:
		v, ok := value.(types.Backpressure)
		if !ok {
			return fmt.Errorf("%w: %s 需要 types.Backpressure", ErrBadOption, name)
		}
		o.Backpressure = v
	default:
		return fmt.Errorf("%w: 未知选项 %q", ErrBadOption, name)
	}
	return nil
}

// get 按键名读取选项
func (o *Options) get(name string) (any, error) {
	switch name {
	case types.OptionHWM:
		return o.HWM, nil
	case types.OptionLWM:
		return o.LWM, nil
	case types.OptionLinger:
		return o.Linger, nil
	case types.OptionReconnectInterval:
		return o.ReconnectInterval, nil
	case types.OptionReconnectIntervalMax:
		return o.ReconnectIntervalMax, nil
	case types.OptionSendTimeout:
		return o.SendTimeout, nil
	case types.OptionRecvTimeout:
		return o.RecvTimeout, nil
	case types.OptionIdentity:
		return o.Identity, nil
	case types.OptionBackpressure:
		return o.Backpressure, nil
	default:
		return nil, fmt.Errorf("%w: 未知选项 %q", ErrBadOption, name)
	}
}
