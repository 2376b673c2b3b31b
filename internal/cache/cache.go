package cache

import (
	"errors"
	"sync"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// Cache is a byte-oriented key/value store used for read-through caching.
type Cache interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// Memory is an in-process cache. A zero TTL keeps entries forever.
type Memory struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, entries: map[string]memoryEntry{}, now: time.Now}
}

func (m *Memory) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && m.now().After(e.expires) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Set(key string, value []byte) error {
	e := memoryEntry{value: append([]byte(nil), value...)}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

// Memcache stores entries in memcached.
type Memcache struct {
	client *memcache.Client
	ttl    time.Duration
}

func NewMemcache(servers []string, ttl time.Duration) *Memcache {
	return &Memcache{client: memcache.New(servers...), ttl: ttl}
}

func (m *Memcache) Get(key string) ([]byte, bool, error) {
	item, err := m.client.Get(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return item.Value, true, nil
}

func (m *Memcache) Set(key string, value []byte) error {
	return m.client.Set(&memcache.Item{Key: key, Value: value, Expiration: int32(m.ttl / time.Second)})
}

// New picks memcached when servers are configured and the in-process cache otherwise.
func New(servers []string, ttl time.Duration) Cache {
	if len(servers) > 0 {
		return NewMemcache(servers, ttl)
	}
	return NewMemory(ttl)
}
