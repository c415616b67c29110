package trie

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrie(t *testing.T) {
	t.Run("前缀匹配", func(t *testing.T) {
		tr := New()
		tr.Add([]byte("weather"))

		assert.True(t, tr.Match([]byte("weather/oslo")))
		assert.True(t, tr.Match([]byte("weather")))
		assert.False(t, tr.Match([]byte("weathe")))
		assert.False(t, tr.Match([]byte("sports/oslo")))
	})

	t.Run("空前缀匹配一切", func(t *testing.T) {
		tr := New()
		tr.Add(nil)

		assert.True(t, tr.Match([]byte("anything")))
		assert.True(t, tr.Match(nil))
	})

	t.Run("引用计数", func(t *testing.T) {
		tr := New()
		assert.True(t, tr.Add([]byte("a")))
		assert.False(t, tr.Add([]byte("a"))) // 第二次订阅不是首次

		assert.False(t, tr.Remove([]byte("a"))) // 还剩一个引用
		assert.True(t, tr.Match([]byte("abc")))
		assert.True(t, tr.Remove([]byte("a"))) // 最后一个引用
		assert.False(t, tr.Match([]byte("abc")))
	})

	t.Run("退订未登记前缀", func(t *testing.T) {
		tr := New()
		tr.Add([]byte("known"))

		assert.False(t, tr.Remove([]byte("unknown")))
		assert.Equal(t, 1, tr.Size())
	})

	t.Run("嵌套前缀独立", func(t *testing.T) {
		tr := New()
		tr.Add([]byte("ab"))
		tr.Add([]byte("abcd"))

		assert.True(t, tr.Remove([]byte("abcd")))
		assert.True(t, tr.Match([]byte("abX")), "短前缀应保留")
		assert.True(t, tr.Remove([]byte("ab")))
		assert.True(t, tr.Empty())
	})

	t.Run("摘除不影响兄弟分支", func(t *testing.T) {
		tr := New()
		tr.Add([]byte("topic/a"))
		tr.Add([]byte("topic/b"))

		assert.True(t, tr.Remove([]byte("topic/a")))
		assert.True(t, tr.Match([]byte("topic/b-extra")))
		assert.False(t, tr.Match([]byte("topic/a-extra")))
	})
}
