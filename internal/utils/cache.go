package utils

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheItem[V any] struct {
	data      V
	expiresAt time.Time
}

// Cache 带过期时间的本地 LRU 缓存。ttl <= 0 时不缓存任何内容
type Cache[V any] struct {
	lruCache *lru.Cache[string, cacheItem[V]]
	ttl      time.Duration
	now      func() time.Time
}

// NewCache 创建容量为 size 的缓存
func NewCache[V any](size int, ttl time.Duration) (*Cache[V], error) {
	if size <= 0 {
		size = 1
	}
	l, err := lru.New[string, cacheItem[V]](size)
	if err != nil {
		return nil, err
	}
	return &Cache[V]{lruCache: l, ttl: ttl, now: time.Now}, nil
}

// Set 写入缓存
func (c *Cache[V]) Set(key string, data V) {
	if c.ttl <= 0 {
		return
	}
	c.lruCache.Add(key, cacheItem[V]{
		data:      data,
		expiresAt: c.now().Add(c.ttl),
	})
}

// Get 获取缓存，不存在或已过期时 ok 为 false
func (c *Cache[V]) Get(key string) (data V, ok bool) {
	val, found := c.lruCache.Get(key)
	if !found {
		return data, false
	}

	// 检查过期
	if c.now().After(val.expiresAt) {
		c.lruCache.Remove(key)
		return data, false
	}
	return val.data, true
}

// Delete 删除指定缓存
func (c *Cache[V]) Delete(key string) {
	c.lruCache.Remove(key)
}

// Purge 清空缓存
func (c *Cache[V]) Purge() {
	c.lruCache.Purge()
}
