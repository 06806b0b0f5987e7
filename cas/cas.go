// Package cas is a content-addressed store for compiled programs. Entries
// are msgpack-encoded and keyed by the farm hash of their bytes; refs map
// a lookup key, such as the hash of a source file, to a stored entry.
package cas

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/dgryski/go-farm"
)

type CAS interface {
	Put(item Hashable) (Hash, error)
	Has(hash Hash) bool

	SetRef(key Hash, target Hash) error
	GetRef(key Hash) (Hash, bool)
}

type Serde interface {
	Serialize(w io.Writer) error
	Deserialize(r io.Reader) error
}

type Hashable interface {
	Serde
}

type directStore interface {
	getValue(h Hash) (bool, []byte, error)
}

// rawStore accepts bytes that were already encoded and hashed, so wrappers
// can encode an entry once and keep a copy.
type rawStore interface {
	putValue(h Hash, data []byte) error
}

type Hash uint64

func (h Hash) String() string {
	return fmt.Sprintf("%016x", uint64(h))
}

var ErrNotFound = errors.New("hash not found in CAS")

// HashBytes is the content hash used for entries and source keys.
func HashBytes(data []byte) Hash {
	return Hash(farm.Hash64(data))
}

// encode wraps item in a TypedEntry and returns the stored bytes and
// their hash.
func encode(item Hashable) (Hash, []byte, error) {
	tag, err := getTypeTag(item)
	if err != nil {
		return 0, nil, err
	}
	var buf bytes.Buffer
	if err := item.Serialize(&buf); err != nil {
		return 0, nil, err
	}
	entry := &TypedEntry{TypeTag: tag, Data: buf.Bytes()}
	var out bytes.Buffer
	if err := entry.Serialize(&out); err != nil {
		return 0, nil, err
	}
	data := out.Bytes()
	return HashBytes(data), data, nil
}

func Retrieve[T Hashable](c CAS, hash Hash) (T, error) {
	var t T
	v, ok := c.(directStore)
	if !ok {
		return t, errors.New("CAS does not support direct retrieval")
	}

	has, data, err := v.getValue(hash)
	if err != nil {
		return t, err
	}
	if !has {
		return t, fmt.Errorf("%w: %s", ErrNotFound, hash)
	}

	typedEntry := &TypedEntry{}
	err = typedEntry.Deserialize(bytes.NewReader(data))
	if err != nil {
		return t, fmt.Errorf("deserializing TypedEntry: %w", err)
	}

	instance, err := createInstance(typedEntry.TypeTag)
	if err != nil {
		return t, fmt.Errorf("creating instance: %w", err)
	}

	err = instance.Deserialize(bytes.NewReader(typedEntry.Data))
	if err != nil {
		return t, fmt.Errorf("deserializing data: %w", err)
	}

	result, ok := instance.(T)
	if !ok {
		return t, fmt.Errorf("type mismatch: expected %T, got %T", t, instance)
	}

	return result, nil
}
