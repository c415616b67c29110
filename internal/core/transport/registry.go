package transport

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/multierr"

	"github.com/wiremq/go-wiremq/pkg/interfaces"
)

// ============================================================================
//                              注册表
// ============================================================================

// Registry 传输层注册表
//
// scheme → Transport 的映射；每个 Context 持有一份。
type Registry struct {
	mu       sync.RWMutex
	bySch    map[string]interfaces.Transport
	distinct []interfaces.Transport
	closed   bool
}

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	return &Registry{bySch: make(map[string]interfaces.Transport)}
}

// Register 注册一个传输
//
// 传输的每个 scheme 都不得与已注册者冲突。
func (r *Registry) Register(t interfaces.Transport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRegistryClosed
	}
	for _, s := range t.Schemes() {
		if _, ok := r.bySch[s]; ok {
			return fmt.Errorf("%w: %q", ErrSchemeTaken, s)
		}
	}
	for _, s := range t.Schemes() {
		r.bySch[s] = t
	}
	r.distinct = append(r.distinct, t)
	return nil
}

// Lookup 按地址选择传输
//
// 返回传输与去掉 scheme 前缀的 endpoint。
func (r *Registry) Lookup(addr string) (interfaces.Transport, string, error) {
	scheme, endpoint, err := SplitAddress(addr)
	if err != nil {
		return nil, "", err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, "", ErrRegistryClosed
	}
	t, ok := r.bySch[scheme]
	if !ok {
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
	}
	return t, endpoint, nil
}

// Close 关闭注册表与所有传输
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	transports := r.distinct
	r.distinct = nil
	r.mu.Unlock()

	var err error
	for _, t := range transports {
		err = multierr.Append(err, t.Close())
	}
	return err
}

// SplitAddress 拆分 "scheme://endpoint" 地址
func SplitAddress(addr string) (scheme, endpoint string, err error) {
	i := strings.Index(addr, "://")
	if i <= 0 || i+3 >= len(addr) {
		return "", "", fmt.Errorf("%w: %q", ErrBadAddress, addr)
	}
	return addr[:i], addr[i+3:], nil
}
