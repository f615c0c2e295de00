// SPDX-License-Identifier: MPL-2.0

package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type (
	// Memory is an in-process Store.
	Memory struct {
		mu      sync.Mutex
		entries map[string]entry
		group   singleflight.Group
		opts    options
	}

	entry struct {
		value     []byte
		expiresAt time.Time
	}
)

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory(opts ...Option) *Memory {
	return &Memory{
		entries: make(map[string]entry),
		opts:    newOptions(opts),
	}
}

// GetOrCompute implements Store.
func (m *Memory) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute ComputeFunc) ([]byte, error) {
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}
	if v, ok := m.get(key); ok {
		return v, nil
	}

	v, err, _ := m.group.Do(key, func() (any, error) {
		// Another caller may have stored the value while we waited.
		if v, ok := m.get(key); ok {
			return v, nil
		}
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.entries[key] = entry{value: slices.Clone(v), expiresAt: m.opts.now().Add(ttl)}
		m.mu.Unlock()
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]byte)), nil
}

func (m *Memory) get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if !m.opts.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return nil, false
	}
	return slices.Clone(e.value), true
}

// Delete implements Store.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// Clear implements Store.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.entries)
	return nil
}

// Len returns the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Close implements Store.
func (m *Memory) Close() error {
	return nil
}
