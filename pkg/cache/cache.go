// Package cache is a small key/value cache with a Redis driver and an
// in-process fallback used when Redis is unreachable.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/hsmarket/storefront/pkg/metrics"
)

// Store is implemented by every driver. Get reports a hit and decodes the
// stored JSON into dest.
type Store interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Has(ctx context.Context, key string) bool
	Del(ctx context.Context, keys ...string) error
	Driver() string
}

type entry struct {
	data    []byte
	expires time.Time
}

// Memory is an in-process Store. Expired keys are dropped lazily.
type Memory struct {
	mu    sync.RWMutex
	items map[string]entry
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{items: map[string]entry{}, now: time.Now}
}

func (m *Memory) Driver() string { return "memory" }

func (m *Memory) lookup(key string) ([]byte, bool) {
	m.mu.RLock()
	e, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		m.mu.Lock()
		delete(m.items, key)
		m.mu.Unlock()
		return nil, false
	}
	return e.data, true
}

func (m *Memory) Get(_ context.Context, key string, dest interface{}) bool {
	data, ok := m.lookup(key)
	if !ok || json.Unmarshal(data, dest) != nil {
		metrics.CacheMisses.WithLabelValues(m.Driver()).Inc()
		return false
	}
	metrics.CacheHits.WithLabelValues(m.Driver()).Inc()
	return true
}

func (m *Memory) Has(_ context.Context, key string) bool {
	_, ok := m.lookup(key)
	return ok
}

func (m *Memory) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	e := entry{data: data}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.items[key] = e
	m.mu.Unlock()
	return nil
}

func (m *Memory) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.items, k)
	}
	m.mu.Unlock()
	return nil
}
