package cas

import (
	"container/list"
	"sync"
)

const defaultCacheSize = 1000

// LRUCache sits in front of another store. Encoded entries that were
// recently written or read stay in memory, and resolved refs are
// remembered so repeated lookups of the same source skip the store.
type LRUCache struct {
	underlying CAS

	mu      sync.Mutex
	entries map[Hash]*list.Element
	order   *list.List // front is most recently used
	refs    map[Hash]Hash
	maxSize int
	hits    int
	misses  int
}

type cachedEntry struct {
	hash Hash
	data []byte
}

// NewLRUCache wraps underlying, holding at most maxSize entries in memory
// (defaultCacheSize when maxSize is not positive).
func NewLRUCache(underlying CAS, maxSize int) *LRUCache {
	if maxSize <= 0 {
		maxSize = defaultCacheSize
	}
	return &LRUCache{
		underlying: underlying,
		entries:    make(map[Hash]*list.Element),
		order:      list.New(),
		refs:       make(map[Hash]Hash),
		maxSize:    maxSize,
	}
}

// Put encodes item once, writes it through and keeps the bytes.
func (l *LRUCache) Put(item Hashable) (Hash, error) {
	raw, ok := l.underlying.(rawStore)
	if !ok {
		return l.underlying.Put(item)
	}
	h, data, err := encode(item)
	if err != nil {
		return 0, err
	}
	if err := raw.putValue(h, data); err != nil {
		return 0, err
	}
	l.mu.Lock()
	l.remember(h, data)
	l.mu.Unlock()
	return h, nil
}

func (l *LRUCache) putValue(h Hash, data []byte) error {
	if raw, ok := l.underlying.(rawStore); ok {
		if err := raw.putValue(h, data); err != nil {
			return err
		}
	}
	l.mu.Lock()
	l.remember(h, data)
	l.mu.Unlock()
	return nil
}

func (l *LRUCache) Has(hash Hash) bool {
	l.mu.Lock()
	_, ok := l.entries[hash]
	l.mu.Unlock()
	return ok || l.underlying.Has(hash)
}

func (l *LRUCache) SetRef(key Hash, target Hash) error {
	if err := l.underlying.SetRef(key, target); err != nil {
		return err
	}
	l.mu.Lock()
	l.refs[key] = target
	l.mu.Unlock()
	return nil
}

func (l *LRUCache) GetRef(key Hash) (Hash, bool) {
	l.mu.Lock()
	target, ok := l.refs[key]
	l.mu.Unlock()
	if ok {
		return target, true
	}
	target, ok = l.underlying.GetRef(key)
	if ok {
		l.mu.Lock()
		l.refs[key] = target
		l.mu.Unlock()
	}
	return target, ok
}

func (l *LRUCache) getValue(h Hash) (bool, []byte, error) {
	l.mu.Lock()
	if elem, ok := l.entries[h]; ok {
		l.order.MoveToFront(elem)
		l.hits++
		data := elem.Value.(*cachedEntry).data
		l.mu.Unlock()
		return true, data, nil
	}
	l.misses++
	l.mu.Unlock()

	direct, ok := l.underlying.(directStore)
	if !ok {
		return false, nil, nil
	}
	has, data, err := direct.getValue(h)
	if err != nil || !has {
		return false, nil, err
	}
	l.mu.Lock()
	l.remember(h, data)
	l.mu.Unlock()
	return true, data, nil
}

// remember stores data as the most recent entry, dropping the least recent
// one past maxSize. Callers hold l.mu.
func (l *LRUCache) remember(h Hash, data []byte) {
	if elem, ok := l.entries[h]; ok {
		l.order.MoveToFront(elem)
		elem.Value.(*cachedEntry).data = data
		return
	}
	l.entries[h] = l.order.PushFront(&cachedEntry{hash: h, data: data})
	if l.order.Len() > l.maxSize {
		last := l.order.Back()
		l.order.Remove(last)
		delete(l.entries, last.Value.(*cachedEntry).hash)
	}
}

type CacheStats struct {
	Size    int
	MaxSize int
	Hits    int
	Misses  int
}

func (l *LRUCache) Stats() CacheStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return CacheStats{
		Size:    len(l.entries),
		MaxSize: l.maxSize,
		Hits:    l.hits,
		Misses:  l.misses,
	}
}
