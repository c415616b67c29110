package socket

import (
	"fmt"

	"github.com/benbjohnson/clock"

	"github.com/wiremq/go-wiremq/internal/core/metrics"
	"github.com/wiremq/go-wiremq/internal/core/reactor"
	"github.com/wiremq/go-wiremq/pkg/interfaces"
	"github.com/wiremq/go-wiremq/pkg/types"
)

// New 按模式创建套接字
//
// clk 为 nil 时使用真实时钟。返回值实现 interfaces.Socket；
// PatternSub 的返回值还实现 interfaces.SubSocket。
func New(pattern types.Pattern, r *reactor.Reactor, clk clock.Clock, mtx *metrics.Collector, opts Options) (interfaces.Socket, error) {
	if !pattern.Valid() {
		return nil, fmt.Errorf("%w: 未知模式 %d", types.ErrNotSupported, pattern)
	}
	if opts.Mechanism == nil {
		opts.Mechanism = DefaultOptions().Mechanism
	}
	if opts.HWM <= 0 {
		opts.HWM = types.DefaultHWM
	}

	b := newBase(pattern, r, clk, mtx, opts)
	switch pattern {
	case types.PatternPub:
		return newPub(b), nil
	case types.PatternSub:
		return newSub(b), nil
	case types.PatternReq:
		return newReq(b), nil
	case types.PatternRep:
		return newRep(b), nil
	case types.PatternRouter:
		return newRouter(b), nil
	case types.PatternDealer:
		return newDealer(b), nil
	default:
		return nil, fmt.Errorf("%w: 未知模式 %d", types.ErrNotSupported, pattern)
	}
}
