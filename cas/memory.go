package cas

import (
	"sync"
)

type MemoryCAS struct {
	mu   sync.RWMutex
	data map[Hash][]byte
	refs map[Hash]Hash
}

func NewMemoryCAS() *MemoryCAS {
	return &MemoryCAS{
		data: make(map[Hash][]byte),
		refs: make(map[Hash]Hash),
	}
}

func (m *MemoryCAS) getValue(h Hash) (bool, []byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[h]
	if !ok {
		return false, nil, nil
	}
	return true, v, nil
}

func (m *MemoryCAS) Has(hash Hash) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[hash]
	return ok
}

func (m *MemoryCAS) Put(item Hashable) (Hash, error) {
	h, data, err := encode(item)
	if err != nil {
		return 0, err
	}
	return h, m.putValue(h, data)
}

func (m *MemoryCAS) putValue(h Hash, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[h] = data
	return nil
}

func (m *MemoryCAS) SetRef(key Hash, target Hash) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[target]; !ok {
		return ErrNotFound
	}
	m.refs[key] = target
	return nil
}

func (m *MemoryCAS) GetRef(key Hash) (Hash, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.refs[key]
	return h, ok
}

// Len reports the number of stored entries.
func (m *MemoryCAS) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
