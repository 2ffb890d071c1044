package services

import (
	"sync"
	"time"
)

// CacheItem 缓存项
type CacheItem struct {
	Data      []byte
	Comments  int
	ExpiresAt time.Time
}

// ResultCache 上传转换结果缓存，键为上传内容和参数的md5
type ResultCache struct {
	mu      sync.RWMutex
	items   map[string]*CacheItem
	maxSize int
	ttl     time.Duration
	stop    chan struct{}
	once    sync.Once
}

// NewResultCache 创建缓存并启动过期清理协程，用完调用 Close
func NewResultCache(maxSize int, ttl time.Duration) *ResultCache {
	if maxSize < 1 {
		maxSize = 1
	}
	cache := &ResultCache{
		items:   make(map[string]*CacheItem),
		maxSize: maxSize,
		ttl:     ttl,
		stop:    make(chan struct{}),
	}
	go cache.cleanupLoop()
	return cache
}

// Get 获取缓存
func (c *ResultCache) Get(key string) (*CacheItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[key]
	if !ok || time.Now().After(item.ExpiresAt) {
		return nil, false
	}
	return item, true
}

// Set 设置缓存
func (c *ResultCache) Set(key string, data []byte, comments int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// 如果缓存已满，删除最旧的项
	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxSize {
		c.evictOldest()
	}
	c.items[key] = &CacheItem{
		Data:      data,
		Comments:  comments,
		ExpiresAt: time.Now().Add(c.ttl),
	}
}

// evictOldest 删除最旧的缓存项
func (c *ResultCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, item := range c.items {
		if oldestKey == "" || item.ExpiresAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = item.ExpiresAt
		}
	}
	if oldestKey != "" {
		delete(c.items, oldestKey)
	}
}

// cleanupLoop 定期清理过期缓存
func (c *ResultCache) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stop:
			return
		}
	}
}

func (c *ResultCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, item := range c.items {
		if now.After(item.ExpiresAt) {
			delete(c.items, key)
		}
	}
}

// Size 获取缓存大小
func (c *ResultCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close 停止清理协程，可重复调用
func (c *ResultCache) Close() {
	c.once.Do(func() { close(c.stop) })
}
