package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryBackend keeps entries in a bounded, in-process LRU.
// The LRU evicts everything older than maxTTL on its own; shorter per-entry
// TTLs are enforced on read.
type MemoryBackend struct {
	lru    *expirable.LRU[string, memoryEntry]
	maxTTL time.Duration
	now    func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryBackend creates a backend holding at most size entries, none of them
// living longer than maxTTL.
func NewMemoryBackend(size int, maxTTL time.Duration) *MemoryBackend {
	if size <= 0 {
		size = 10000
	}
	return &MemoryBackend{
		lru:    expirable.NewLRU[string, memoryEntry](size, nil, maxTTL),
		maxTTL: maxTTL,
		now:    time.Now,
	}
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	entry, ok := m.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		m.lru.Remove(key)
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (m *MemoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 || (m.maxTTL > 0 && ttl > m.maxTTL) {
		ttl = m.maxTTL
	}

	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.lru.Add(key, entry)
	return nil
}

func (m *MemoryBackend) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		m.lru.Remove(key)
	}
	return nil
}

// Len reports the number of live entries.
func (m *MemoryBackend) Len() int {
	return m.lru.Len()
}
