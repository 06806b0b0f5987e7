package project

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/marrow-lang/marrow/cas"
	"github.com/marrow-lang/marrow/eval"
	"github.com/marrow-lang/marrow/interp"
	"github.com/marrow-lang/marrow/syntax"
	"github.com/marrow-lang/marrow/vm"
)

type Executor struct {
	Project *Project
	Program *vm.Program     // set for the vm backend
	AST     *syntax.Program // set for the tree backend
	Cached  bool
}

// OpenCache returns the store configured by the cache section, or nil when
// caching is off.
func (p *Project) OpenCache() (cas.CAS, error) {
	if p.Cache.Dir == "" {
		return nil, nil
	}
	dir, err := cas.NewDirCAS(p.Cache.Dir)
	if err != nil {
		return nil, err
	}
	return cas.NewLRUCache(dir, p.Cache.Size), nil
}

// BuildExecutor loads and prepares the program. A nil store falls back to
// the project's own cache section.
func (p *Project) BuildExecutor(store cas.CAS) (*Executor, error) {
	src, err := os.ReadFile(p.Program.File)
	if err != nil {
		return nil, err
	}
	exec := &Executor{Project: p}
	switch p.Program.Backend {
	case BackendTree:
		exec.AST, err = syntax.Parse(p.Program.File, string(src))
		if err != nil {
			return nil, err
		}
		return exec, nil
	case BackendVM:
	default:
		return nil, fmt.Errorf("unknown backend %q", p.Program.Backend)
	}

	if store == nil {
		store, err = p.OpenCache()
		if err != nil {
			return nil, err
		}
	}
	if store != nil {
		exec.Program, exec.Cached, err = cas.CompileCached(store, p.Program.File, string(src))
	} else {
		exec.Program, err = vm.CompileSource(p.Program.File, string(src))
	}
	if err != nil {
		return nil, err
	}
	return exec, nil
}

func (e *Executor) Options(stdout io.Writer) interp.Options {
	return interp.Options{
		Stdout:       stdout,
		MaxCallDepth: e.Project.Limits.MaxCallDepth,
	}
}

// Run executes the program with the configured backend.
func (e *Executor) Run(stdout io.Writer) (vm.Value, error) {
	log.Debug().
		Str("file", e.Project.Program.File).
		Str("backend", e.Project.Program.Backend).
		Bool("cached", e.Cached).
		Msg("Executor: running")
	opts := e.Options(stdout)
	if e.AST != nil {
		return eval.New(e.AST, opts).Run()
	}
	return interp.New(e.Program, opts).Run()
}
