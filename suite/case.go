// Package suite runs Marrow programs against their expected output on one
// or more backends in parallel.
package suite

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	SourceExt   = ".mar"
	ExpectedExt = ".out"
)

// Case is one program and the output it must produce.
type Case struct {
	Name     string // path relative to the discovery root, without extension
	File     string
	Expected string
	// HasExpected is false when no .out file exists yet; such a case only
	// checks that the backends agree.
	HasExpected bool
}

// ExpectedPath is where the case's golden output lives.
func (c Case) ExpectedPath() string {
	return strings.TrimSuffix(c.File, SourceExt) + ExpectedExt
}

// LoadCase reads the expected output next to file, if any.
func LoadCase(root, file string) (Case, error) {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		rel = filepath.Base(file)
	}
	c := Case{
		Name: filepath.ToSlash(strings.TrimSuffix(rel, SourceExt)),
		File: file,
	}
	data, err := os.ReadFile(c.ExpectedPath())
	switch {
	case err == nil:
		c.Expected = string(data)
		c.HasExpected = true
	case !errors.Is(err, fs.ErrNotExist):
		return Case{}, err
	}
	return c, nil
}

// Discover walks root for .mar files, sorted by name.
func Discover(root string) ([]Case, error) {
	var cases []Case
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != SourceExt {
			return nil
		}
		c, err := LoadCase(root, path)
		if err != nil {
			return err
		}
		cases = append(cases, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(cases, func(i, j int) bool { return cases[i].Name < cases[j].Name })
	return cases, nil
}
