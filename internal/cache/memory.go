package cache

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	summary string
	expires time.Time
}

// MemoryCache is an in-process Cache used when no Redis URL is configured
// and in tests. Expired entries are dropped lazily on read and by Sweep.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memEntry
	now     func() time.Time
}

// Option customizes a MemoryCache.
type Option func(*MemoryCache)

// WithClock replaces time.Now, letting tests move time forward.
func WithClock(now func() time.Time) Option {
	return func(m *MemoryCache) { m.now = now }
}

// NewMemory returns an empty MemoryCache.
func NewMemory(opts ...Option) *MemoryCache {
	m := &MemoryCache{entries: make(map[string]memEntry), now: time.Now}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *MemoryCache) Get(_ context.Context, channelID string) (string, bool, error) {
	key := Key(channelID)
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	if !m.now().Before(e.expires) {
		m.mu.Lock()
		if cur, still := m.entries[key]; still && cur.expires.Equal(e.expires) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return "", false, nil
	}
	return e.summary, true, nil
}

func (m *MemoryCache) Put(_ context.Context, channelID, summary string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m.mu.Lock()
	m.entries[Key(channelID)] = memEntry{summary: summary, expires: m.now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

// Sweep removes every expired entry and returns how many were dropped.
func (m *MemoryCache) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, k)
			n++
		}
	}
	return n
}

// Len reports the number of stored entries, including expired ones not yet
// swept.
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
