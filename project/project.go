// Package project loads run configuration for a Marrow program from a
// TOML or YAML file.
package project

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/marrow-lang/marrow/interp"
)

const (
	BackendVM   = "vm"
	BackendTree = "tree"
)

type Project struct {
	Program ProgramSection `toml:"program" yaml:"program"`
	Limits  LimitsSection  `toml:"limits" yaml:"limits"`
	Cache   CacheSection   `toml:"cache" yaml:"cache"`
}

type ProgramSection struct {
	File    string `toml:"file,omitempty" yaml:"file,omitempty"`
	Backend string `toml:"backend,omitempty" yaml:"backend,omitempty"`
}

type LimitsSection struct {
	MaxCallDepth int `toml:"max_call_depth,omitempty" yaml:"max_call_depth,omitempty"`
}

type CacheSection struct {
	// Dir enables the on-disk program cache.
	Dir  string `toml:"dir,omitempty" yaml:"dir,omitempty"`
	Size int    `toml:"size,omitempty" yaml:"size,omitempty"`
}

func parseTOML(r io.Reader) (*Project, error) {
	var out Project
	_, err := toml.NewDecoder(r).Decode(&out)
	return &out, err
}

func parseYAML(r io.Reader) (*Project, error) {
	var out Project
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&out); err != nil && err != io.EOF {
		return nil, err
	}
	return &out, nil
}

// Parse decodes a project file; format is "toml" or "yaml".
func Parse(format string, data []byte) (*Project, error) {
	var (
		p   *Project
		err error
	)
	switch format {
	case "toml":
		p, err = parseTOML(bytes.NewReader(data))
	case "yaml", "yml":
		p, err = parseYAML(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unknown project format %q", format)
	}
	if err != nil {
		return nil, err
	}
	p.applyDefaults()
	return p, p.Validate()
}

func LoadFromFile(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	base := filepath.Base(path)
	ext := strings.TrimPrefix(filepath.Ext(base), ".")
	p, err := Parse(ext, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if p.Program.File == "" {
		p.Program.File = strings.TrimSuffix(base, filepath.Ext(base)) + ".mar"
	}
	filedir := filepath.Dir(path)
	p.Program.File = filepath.Clean(filepath.Join(filedir, p.Program.File))
	if p.Cache.Dir != "" && !filepath.IsAbs(p.Cache.Dir) {
		p.Cache.Dir = filepath.Clean(filepath.Join(filedir, p.Cache.Dir))
	}
	return p, nil
}

func (p *Project) applyDefaults() {
	if p.Program.Backend == "" {
		p.Program.Backend = BackendVM
	}
	if p.Limits.MaxCallDepth <= 0 {
		p.Limits.MaxCallDepth = interp.DefaultMaxCallDepth
	}
	if p.Cache.Size <= 0 {
		p.Cache.Size = 64
	}
}

func (p *Project) Validate() error {
	switch p.Program.Backend {
	case BackendVM, BackendTree:
	default:
		return fmt.Errorf("unknown backend %q (want %q or %q)", p.Program.Backend, BackendVM, BackendTree)
	}
	return nil
}

// ForFile builds the default project for a bare source file.
func ForFile(path string) *Project {
	p := &Project{Program: ProgramSection{File: path}}
	p.applyDefaults()
	return p
}
