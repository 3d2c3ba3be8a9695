package cache

import (
	"sync"
	"time"
)

// MemoryCache реализует domain.Cache в памяти процесса. Подходит для
// запуска в один инстанс без Redis.
type MemoryCache struct {
	mu   sync.Mutex
	keys map[string]time.Time
}

// NewMemory создаёт кэш.
func NewMemory() *MemoryCache {
	return &MemoryCache{keys: make(map[string]time.Time)}
}

// Once выполняет fn, если ключ ещё не задан, и возвращает признак
// выполнения. Ошибка fn освобождает ключ.
func (c *MemoryCache) Once(key string, ttl time.Duration, fn func() error) (bool, error) {
	now := time.Now()

	c.mu.Lock()
	if exp, ok := c.keys[key]; ok && now.Before(exp) {
		c.mu.Unlock()
		return false, nil
	}
	for k, exp := range c.keys {
		if now.After(exp) {
			delete(c.keys, k)
		}
	}
	c.keys[key] = now.Add(ttl)
	c.mu.Unlock()

	if err := fn(); err != nil {
		c.mu.Lock()
		delete(c.keys, key)
		c.mu.Unlock()
		return true, err
	}
	return true, nil
}
