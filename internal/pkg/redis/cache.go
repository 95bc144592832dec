package redis

import (
	"context"
	"sync"
	"time"
)

// Cache 服务层使用的缓存与锁能力
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	TryLock(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
	UnLock(ctx context.Context, key string, value string)
}

type redisCache struct{}

// NewCache 基于全局 Rdb 的实现
func NewCache() Cache {
	return &redisCache{}
}

func (s *redisCache) Get(ctx context.Context, key string) (string, error) {
	return GetValue(ctx, key)
}

func (s *redisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return SetWithExpiration(ctx, key, value, ttl)
}

func (s *redisCache) Delete(ctx context.Context, key string) error {
	return DeleteKey(ctx, key)
}

func (s *redisCache) TryLock(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	return TryLock(ctx, key, value, ttl, 1)
}

func (s *redisCache) UnLock(ctx context.Context, key string, value string) {
	UnLock(ctx, key, value)
}

type memoryEntry struct {
	value    string
	expireAt time.Time
}

// MemoryCache 进程内实现，用于测试与 memory 驱动的本地运行
type MemoryCache struct {
	mu   sync.Mutex
	data map[string]memoryEntry
	Now  func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: make(map[string]memoryEntry), Now: time.Now}
}

func (s *MemoryCache) load(key string) (memoryEntry, bool) {
	e, ok := s.data[key]
	if !ok {
		return e, false
	}
	if !e.expireAt.IsZero() && !s.Now().Before(e.expireAt) {
		delete(s.data, key)
		return e, false
	}
	return e, true
}

func (s *MemoryCache) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, _ := s.load(key)
	return e.value, nil
}

func (s *MemoryCache) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expireAt = s.Now().Add(ttl)
	}
	s.data[key] = e
	return nil
}

func (s *MemoryCache) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *MemoryCache) TryLock(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.load(key); ok {
		return false, nil
	}
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expireAt = s.Now().Add(ttl)
	}
	s.data[key] = e
	return true, nil
}

func (s *MemoryCache) UnLock(_ context.Context, key string, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.load(key); ok && e.value == value {
		delete(s.data, key)
	}
}
