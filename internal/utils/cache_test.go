package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCache(t *testing.T) {
	c, err := NewTTLCache[string, uint](2, time.Minute)
	require.NoError(t, err)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("hello-world", 1)
	got, ok := c.Get("hello-world")
	require.True(t, ok)
	assert.Equal(t, uint(1), got)

	// 过期后读取失败并被移除
	now = now.Add(2 * time.Minute)
	_, ok = c.Get("hello-world")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())

	// 超出容量时淘汰最久未使用的键
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)
	_, ok = c.Get("a")
	assert.False(t, ok)

	c.Delete("b")
	_, ok = c.Get("b")
	assert.False(t, ok)
}

func TestNewTTLCache_InvalidSize(t *testing.T) {
	_, err := NewTTLCache[string, int](0, time.Minute)
	assert.Error(t, err)
}
