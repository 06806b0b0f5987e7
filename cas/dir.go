package cas

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// DirCAS keeps one file per entry under a directory, so compiled programs
// survive between runs. Refs are small files holding the target hash.
type DirCAS struct {
	mu  sync.RWMutex
	dir string
}

func NewDirCAS(dir string) (*DirCAS, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DirCAS{dir: dir}, nil
}

func (d *DirCAS) entryPath(h Hash) string {
	return filepath.Join(d.dir, h.String()+".entry")
}

func (d *DirCAS) refPath(h Hash) string {
	return filepath.Join(d.dir, h.String()+".ref")
}

// writeFile replaces path atomically.
func (d *DirCAS) writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(d.dir, ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (d *DirCAS) getValue(h Hash) (bool, []byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	data, err := os.ReadFile(d.entryPath(h))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, err
	}
	if HashBytes(data) != h {
		return false, nil, fmt.Errorf("cache entry %s is corrupt", h)
	}
	return true, data, nil
}

func (d *DirCAS) Has(hash Hash) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, err := os.Stat(d.entryPath(hash))
	return err == nil
}

func (d *DirCAS) Put(item Hashable) (Hash, error) {
	h, data, err := encode(item)
	if err != nil {
		return 0, err
	}
	return h, d.putValue(h, data)
}

// putValue writes an entry unless a file for it already exists.
func (d *DirCAS) putValue(h Hash, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := os.Stat(d.entryPath(h)); err == nil {
		return nil
	}
	return d.writeFile(d.entryPath(h), data)
}

func (d *DirCAS) SetRef(key Hash, target Hash) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := os.Stat(d.entryPath(target)); err != nil {
		return ErrNotFound
	}
	return d.writeFile(d.refPath(key), []byte(target.String()))
}

func (d *DirCAS) GetRef(key Hash) (Hash, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	data, err := os.ReadFile(d.refPath(key))
	if err != nil {
		return 0, false
	}
	v, err := strconv.ParseUint(strings.TrimSpace(string(data)), 16, 64)
	if err != nil {
		return 0, false
	}
	return Hash(v), true
}
