// Package eval runs a parsed program directly from its AST. It shares the
// value model, operators and builtins with the bytecode machine and must
// produce the same output for the same program.
package eval

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/marrow-lang/marrow/interp"
	"github.com/marrow-lang/marrow/syntax"
	"github.com/marrow-lang/marrow/vm"
)

var (
	ErrNoEntryPoint      = interp.ErrNoEntryPoint
	ErrCallDepthExceeded = interp.ErrCallDepthExceeded
)

// Outcome tells the enclosing statement how control left a statement.
type Outcome int

const (
	Normal Outcome = iota
	Returned
	Broke
	Continued
)

func (o Outcome) String() string {
	switch o {
	case Normal:
		return "Normal"
	case Returned:
		return "Returned"
	case Broke:
		return "Broke"
	case Continued:
		return "Continued"
	}
	return "Unknown"
}

type Evaluator struct {
	Globals  map[string]vm.Value
	Builtins vm.Builtins

	funcs    map[string]*syntax.Function
	out      io.Writer
	maxDepth int
	depth    int
	loops    int
	scopes   []map[string]vm.Value
	log      zerolog.Logger
}

func New(prog *syntax.Program, opts interp.Options) *Evaluator {
	e := &Evaluator{
		Globals:  opts.Globals,
		Builtins: vm.NewBuiltins(time.Now()),
		funcs:    make(map[string]*syntax.Function),
		out:      opts.Stdout,
		maxDepth: opts.MaxCallDepth,
	}
	for _, fn := range prog.Functions {
		e.funcs[fn.Name] = fn
	}
	if e.Globals == nil {
		e.Globals = make(map[string]vm.Value)
	}
	if e.out == nil {
		e.out = os.Stdout
	}
	if e.maxDepth <= 0 {
		e.maxDepth = interp.DefaultMaxCallDepth
	}
	e.log = log.With().Str("run", uuid.NewString()).Str("backend", "tree").Logger()
	return e
}

// Run calls main with no arguments and returns its result.
func (e *Evaluator) Run() (vm.Value, error) {
	if _, ok := e.funcs["main"]; !ok {
		return nil, ErrNoEntryPoint
	}
	e.log.Debug().Int("functions", len(e.funcs)).Msg("Run: starting")
	return e.callValue(e.lookup("main"), nil)
}

func (e *Evaluator) callValue(callee vm.Value, args []vm.Value) (vm.Value, error) {
	switch fn := callee.(type) {
	case vm.BuiltinValue:
		return e.Builtins.Call(fn, args), nil
	case vm.FunctionValue:
		def, ok := e.funcs[string(fn)]
		if !ok {
			return vm.Null, nil
		}
		return e.callFunction(def, args)
	}
	return vm.Null, nil
}

func (e *Evaluator) callFunction(fn *syntax.Function, args []vm.Value) (vm.Value, error) {
	if e.depth >= e.maxDepth {
		return nil, fmt.Errorf("%w: calling %s at depth %d", ErrCallDepthExceeded, fn.Name, e.depth)
	}
	params := make(map[string]vm.Value, len(fn.Params))
	for i, p := range fn.Params {
		if i < len(args) {
			params[p] = args[i]
		} else {
			params[p] = vm.Null
		}
	}
	saved, savedLoops := e.scopes, e.loops
	e.scopes = []map[string]vm.Value{params}
	e.loops = 0
	e.depth++
	defer func() {
		e.scopes, e.loops = saved, savedLoops
		e.depth--
	}()
	e.log.Trace().Str("function", fn.Name).Int("depth", e.depth).Msg("call")

	out, v, err := e.block(fn.Body)
	if err != nil {
		return nil, err
	}
	if out == Returned {
		return v, nil
	}
	return vm.Null, nil
}

func (e *Evaluator) pushScope() {
	e.scopes = append(e.scopes, map[string]vm.Value{})
}

func (e *Evaluator) popScope() {
	e.scopes = e.scopes[:len(e.scopes)-1]
}

func (e *Evaluator) declare(name string, v vm.Value) {
	e.scopes[len(e.scopes)-1][name] = v
}

// lookup resolves a name through the local scopes, the globals, the user
// functions and finally the builtins.
func (e *Evaluator) lookup(name string) vm.Value {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if v, ok := e.scopes[i][name]; ok {
			return v
		}
	}
	if v, ok := e.Globals[name]; ok {
		return v
	}
	if _, ok := e.funcs[name]; ok {
		return vm.FunctionValue(name)
	}
	if b, ok := e.Builtins.Lookup(name); ok {
		return b
	}
	return vm.Null
}

func (e *Evaluator) assign(name string, v vm.Value) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if _, ok := e.scopes[i][name]; ok {
			e.scopes[i][name] = v
			return
		}
	}
	e.Globals[name] = v
}
