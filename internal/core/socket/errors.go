package socket

import "errors"

var (
	// ErrBadOption 选项键未知或值类型不符
	ErrBadOption = errors.New("bad socket option")

	// ErrNoPeers 没有任何可用管道
	ErrNoPeers = errors.New("no connected peers")
)
