// Package trie 实现按字节前缀匹配的订阅树。
//
// 发布端为每个订阅者维护一棵前缀树；消息首帧与树中任一前缀
// 匹配即投递。节点带引用计数，同一前缀重复订阅需等量退订
// 才真正移除。
package trie

// ============================================================================
//                              前缀树
// ============================================================================

// node 树节点
//
// 子节点用 256 槽数组换取零分配查找；订阅树通常很小，
// 稀疏数组的空间开销可以接受。
type node struct {
	refs     int // 恰好终止于本节点的订阅计数
	children [256]*node
	liveKids int
}

// Trie 字节前缀订阅树
//
// 非并发安全，调用方负责同步。
type Trie struct {
	root node
	size int
}

// New 创建空树
func New() *Trie {
	return &Trie{}
}

// Size 当前订阅前缀数（含重复计数）
func (t *Trie) Size() int { return t.size }

// Add 登记一个前缀订阅，返回该前缀是否首次出现。
// 空前缀匹配所有消息。
func (t *Trie) Add(prefix []byte) bool {
	n := &t.root
	for _, b := range prefix {
		child := n.children[b]
		if child == nil {
			child = &node{}
			n.children[b] = child
			n.liveKids++
		}
		n = child
	}
	n.refs++
	t.size++
	return n.refs == 1
}

// Remove 注销一个前缀订阅，返回该前缀的最后一个引用是否被移除。
// 前缀未登记时返回 false 且树不变。
func (t *Trie) Remove(prefix []byte) bool {
	found, last, _ := t.remove(&t.root, prefix)
	if found {
		t.size--
	}
	return last
}

// remove 递归注销；prune 表示节点已空可由父节点摘除
func (t *Trie) remove(n *node, prefix []byte) (found, last, prune bool) {
	if len(prefix) == 0 {
		if n.refs == 0 {
			return false, false, false
		}
		n.refs--
		last = n.refs == 0
		return true, last, last && n.liveKids == 0
	}
	b := prefix[0]
	child := n.children[b]
	if child == nil {
		return false, false, false
	}
	found, last, prune = t.remove(child, prefix[1:])
	if prune {
		n.children[b] = nil
		n.liveKids--
		prune = n.refs == 0 && n.liveKids == 0
	}
	return found, last, prune
}

// Match 消息数据是否与树中任一前缀匹配
func (t *Trie) Match(data []byte) bool {
	n := &t.root
	if n.refs > 0 {
		return true
	}
	for _, b := range data {
		n = n.children[b]
		if n == nil {
			return false
		}
		if n.refs > 0 {
			return true
		}
	}
	return false
}

// Empty 树中是否没有任何订阅
func (t *Trie) Empty() bool { return t.size == 0 }
