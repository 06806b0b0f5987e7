package project

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marrow-lang/marrow/cas"
	"github.com/marrow-lang/marrow/interp"
)

const prog = `
function fact(n) { if n < 2 { return 1; } return n * fact(n - 1); }
function main() { printLine fact(5); }
`

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestLoadTOMLDefaults(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"fact.toml": "",
		"fact.mar":  prog,
	})
	p, err := LoadFromFile(filepath.Join(dir, "fact.toml"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "fact.mar"), p.Program.File)
	assert.Equal(t, BackendVM, p.Program.Backend)
	assert.Equal(t, interp.DefaultMaxCallDepth, p.Limits.MaxCallDepth)
	assert.Empty(t, p.Cache.Dir)
}

func TestLoadTOML(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"marrow.toml": `
[program]
file = "src.mar"
backend = "tree"

[limits]
max_call_depth = 8

[cache]
dir = ".cache"
size = 3
`,
		"src.mar": prog,
	})
	p, err := LoadFromFile(filepath.Join(dir, "marrow.toml"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "src.mar"), p.Program.File)
	assert.Equal(t, BackendTree, p.Program.Backend)
	assert.Equal(t, 8, p.Limits.MaxCallDepth)
	assert.Equal(t, filepath.Join(dir, ".cache"), p.Cache.Dir)
	assert.Equal(t, 3, p.Cache.Size)

	exec, err := p.BuildExecutor(nil)
	require.NoError(t, err)
	require.NotNil(t, exec.AST)
	var out bytes.Buffer
	_, err = exec.Run(&out)
	require.NoError(t, err)
	assert.Equal(t, "120\n", out.String())
}

func TestLoadYAMLWithCache(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"marrow.yaml": `
program:
  file: src.mar
cache:
  dir: cache
`,
		"src.mar": prog,
	})
	p, err := LoadFromFile(filepath.Join(dir, "marrow.yaml"))
	require.NoError(t, err)
	assert.Equal(t, BackendVM, p.Program.Backend)

	for i, wantCached := range []bool{false, true} {
		exec, err := p.BuildExecutor(nil)
		require.NoError(t, err)
		assert.Equal(t, wantCached, exec.Cached, "build %d", i)
		var out bytes.Buffer
		_, err = exec.Run(&out)
		require.NoError(t, err)
		assert.Equal(t, "120\n", out.String())
	}
}

func TestExplicitStore(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.mar": prog})
	p := ForFile(filepath.Join(dir, "a.mar"))
	store := cas.NewMemoryCAS()
	_, err := p.BuildExecutor(store)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
}

func TestBadBackend(t *testing.T) {
	_, err := Parse("toml", []byte("[program]\nbackend = \"jit\"\n"))
	require.Error(t, err)
	_, err = Parse("ini", nil)
	require.Error(t, err)
}
