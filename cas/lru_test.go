package cas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marrow-lang/marrow/vm"
)

func entryFor(t *testing.T, src string) *ProgramEntry {
	t.Helper()
	prog, err := vm.CompileSource("t", src)
	require.NoError(t, err)
	return NewProgramEntry("t", HashBytes([]byte(src)), prog)
}

func TestLRUCache_BasicOperation(t *testing.T) {
	underlying := NewMemoryCAS()
	cache := NewLRUCache(underlying, 2)

	var hashes []Hash
	for _, src := range []string{
		"function main() { print 1; }",
		"function main() { print 2; }",
		"function main() { print 3; }",
	} {
		h, err := cache.Put(entryFor(t, src))
		require.NoError(t, err)
		hashes = append(hashes, h)
	}

	for _, h := range hashes {
		e, err := Retrieve[*ProgramEntry](cache, h)
		require.NoError(t, err)
		assert.Equal(t, "t", e.Name)
	}
	stats := cache.Stats()
	assert.Equal(t, 2, stats.Size)
	assert.Equal(t, 2, stats.MaxSize)

	// every read evicted the entry needed next
	assert.Equal(t, 3, stats.Misses)
	assert.Equal(t, 0, stats.Hits)

	// The oldest entry was evicted from memory but still lives underneath.
	assert.True(t, cache.Has(hashes[0]))
	_, err := Retrieve[*ProgramEntry](cache, hashes[0])
	require.NoError(t, err)
	_, err = Retrieve[*ProgramEntry](cache, hashes[0])
	require.NoError(t, err)
	stats = cache.Stats()
	assert.Equal(t, 4, stats.Misses)
	assert.Equal(t, 1, stats.Hits)
}

func TestLRUCache_WriteThrough(t *testing.T) {
	underlying := NewMemoryCAS()
	cache := NewLRUCache(underlying, 4)
	h, err := cache.Put(entryFor(t, "function main() { print 'w'; }"))
	require.NoError(t, err)
	assert.True(t, underlying.Has(h))

	_, err = Retrieve[*ProgramEntry](cache, h)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Stats().Hits)
}

func TestLRUCache_Refs(t *testing.T) {
	underlying := NewMemoryCAS()
	cache := NewLRUCache(underlying, 4)
	h, err := underlying.Put(entryFor(t, "function main() {}"))
	require.NoError(t, err)
	require.NoError(t, underlying.SetRef(Hash(7), h))

	got, ok := cache.GetRef(Hash(7))
	require.True(t, ok)
	assert.Equal(t, h, got)

	require.ErrorIs(t, cache.SetRef(Hash(8), Hash(12345)), ErrNotFound)
	_, ok = cache.GetRef(Hash(8))
	assert.False(t, ok)

	require.NoError(t, cache.SetRef(Hash(9), h))
	got, ok = underlying.GetRef(Hash(9))
	require.True(t, ok)
	assert.Equal(t, h, got)
}

func TestLRUCache_Has(t *testing.T) {
	cache := NewLRUCache(NewMemoryCAS(), 10)
	h, err := cache.Put(entryFor(t, "function main() {}"))
	require.NoError(t, err)
	assert.True(t, cache.Has(h))
	assert.False(t, cache.Has(Hash(99999)))
}

func TestRetrieveMissing(t *testing.T) {
	_, err := Retrieve[*ProgramEntry](NewMemoryCAS(), Hash(1))
	require.ErrorIs(t, err, ErrNotFound)
}
