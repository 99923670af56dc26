package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheExpiry(t *testing.T) {
	c, err := NewCache[int](4, time.Minute)
	require.NoError(t, err)

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok, "expired entries are dropped")
}

func TestCacheDisabled(t *testing.T) {
	c, err := NewCache[string](4, 0)
	require.NoError(t, err)

	c.Set("a", "x")
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestCacheEvictsAndPurges(t *testing.T) {
	c, err := NewCache[int](2, time.Hour)
	require.NoError(t, err)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)
	_, ok := c.Get("a")
	assert.False(t, ok, "least recently used entry is evicted")

	c.Delete("b")
	_, ok = c.Get("b")
	assert.False(t, ok)

	c.Purge()
	_, ok = c.Get("c")
	assert.False(t, ok)
}
