package cache

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time // 零值表示不过期
}

// MemoryStore 进程内缓存，单机部署或测试使用
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]memoryEntry
	now  func() time.Time
	log  *logrus.Logger
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]memoryEntry), now: time.Now}
}

// WithClock 替换时钟
func (ms *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	ms.now = now
	return ms
}

func (ms *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	e, ok := ms.data[key]
	if !ok || ms.expired(e) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (ms *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = ms.now().Add(ttl)
	}
	ms.data[key] = e
	return nil
}

func (ms *MemoryStore) Delete(_ context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.data, key)
	return nil
}

func (ms *MemoryStore) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && !ms.now().Before(e.expiresAt)
}

// WithLogger 清理日志输出
func (ms *MemoryStore) WithLogger(log *logrus.Logger) *MemoryStore {
	ms.log = log
	return ms
}

// StartSweeper 定期清理过期 key
func (ms *MemoryStore) StartSweeper(ctx context.Context, every time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				ms.sweep()
			}
		}
	}()
}

func (ms *MemoryStore) sweep() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	evicted := 0
	for key, e := range ms.data {
		if ms.expired(e) {
			delete(ms.data, key)
			evicted++
		}
	}
	if evicted > 0 && ms.log != nil {
		ms.log.WithField("evicted", evicted).Debug("[Cache] sweeper evicted expired keys")
	}
	return evicted
}
