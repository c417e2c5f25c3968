package store

import "sync"

// mapOp is one journaled write. Replaying the journal in order gives
// per-key last-write-wins.
type mapOp[K comparable, V any] struct {
	key    K
	value  V
	remove bool
}

// MemoryMap is an in-memory Map backed by a native map. It is safe for
// concurrent use. Intended for testing and development.
type MemoryMap[K comparable, V any] struct {
	mu      sync.RWMutex
	items   map[K]V
	journal []mapOp[K, V]
	inBatch bool
}

// NewMemoryMap creates an empty in-memory map.
func NewMemoryMap[K comparable, V any]() *MemoryMap[K, V] {
	return &MemoryMap[K, V]{items: make(map[K]V)}
}

func (m *MemoryMap[K, V]) Insert(key K, value V) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inBatch {
		m.journal = append(m.journal, mapOp[K, V]{key: key, value: value})
		return nil
	}
	m.items[key] = value
	return nil
}

func (m *MemoryMap[K, V]) Get(key K) (V, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.items[key]
	return value, ok, nil
}

func (m *MemoryMap[K, V]) Remove(key K) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inBatch {
		m.journal = append(m.journal, mapOp[K, V]{key: key, remove: true})
		return nil
	}
	delete(m.items, key)
	return nil
}

func (m *MemoryMap[K, V]) Contains(key K) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.items[key]
	return ok, nil
}

func (m *MemoryMap[K, V]) Keys() []K {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]K, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}
	return keys
}

func (m *MemoryMap[K, V]) Values() []V {
	m.mu.RLock()
	defer m.mu.RUnlock()
	values := make([]V, 0, len(m.items))
	for _, v := range m.items {
		values = append(values, v)
	}
	return values
}

func (m *MemoryMap[K, V]) StartAtomic() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inBatch = true
}

func (m *MemoryMap[K, V]) IsAtomicInProgress() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.inBatch
}

func (m *MemoryMap[K, V]) AbortAtomic() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.journal = nil
	m.inBatch = false
}

func (m *MemoryMap[K, V]) FinishAtomic() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range m.journal {
		if op.remove {
			delete(m.items, op.key)
		} else {
			m.items[op.key] = op.value
		}
	}
	m.journal = nil
	m.inBatch = false
	return nil
}

// Len returns the number of committed entries.
func (m *MemoryMap[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
