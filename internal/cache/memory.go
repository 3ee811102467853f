package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is the SeenStore used when Redis is not configured
type MemoryCache struct {
	mu   sync.Mutex
	data map[string]time.Time
	now  func() time.Time
}

var _ SeenStore = (*MemoryCache)(nil)

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		data: make(map[string]time.Time),
		now:  time.Now,
	}
}

func (m *MemoryCache) Close() error {
	return nil
}

func (m *MemoryCache) IsSeen(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	expires, ok := m.data[key]
	if !ok {
		return false, nil
	}
	if !expires.IsZero() && m.now().After(expires) {
		delete(m.data, key)
		return false, nil
	}
	return true, nil
}

// MarkSeen stores key; a non-positive ttl never expires.
func (m *MemoryCache) MarkSeen(ctx context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var expires time.Time
	if ttl > 0 {
		expires = m.now().Add(ttl)
	}
	m.data[key] = expires
	return nil
}

func (m *MemoryCache) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]time.Time)
	return nil
}
