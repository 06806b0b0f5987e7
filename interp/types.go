package interp

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/marrow-lang/marrow/vm"
)

// DefaultMaxCallDepth bounds the frame stack when Options leaves it unset.
const DefaultMaxCallDepth = 1024

var (
	ErrNoEntryPoint      = errors.New("no main function")
	ErrCallDepthExceeded = errors.New("call depth exceeded")
	ErrStackUnderrun     = errors.New("stack underrun")
	ErrNoFrame           = errors.New("no active frame")
)

type StepResult int

const (
	ContinueStep StepResult = iota
	CallStep
	ReturnStep
	EndStep
)

func (r StepResult) String() string {
	switch r {
	case ContinueStep:
		return "Continue"
	case CallStep:
		return "Call"
	case ReturnStep:
		return "Return"
	case EndStep:
		return "End"
	}
	return "Unknown"
}

type Options struct {
	// Stdout receives PRINT output. Defaults to os.Stdout.
	Stdout io.Writer
	// MaxCallDepth defaults to DefaultMaxCallDepth.
	MaxCallDepth int
	// Globals, when set, is used as the global table so that it survives
	// across runs.
	Globals map[string]vm.Value
}

// Frame is one active user-function call. Its locals live in
// Machine.Locals[Base : Base+Size].
type Frame struct {
	Function  string
	Base      int
	Size      int
	ReturnPC  int // -1 halts the machine on return
	StackBase int
}

type Machine struct {
	Program  *vm.Program
	Stack    []vm.Value
	Locals   []vm.Value
	Frames   []Frame
	Globals  map[string]vm.Value
	Builtins vm.Builtins
	PC       int

	out      io.Writer
	maxDepth int
	log      zerolog.Logger
	halted   bool
}

func New(prog *vm.Program, opts Options) *Machine {
	m := &Machine{
		Program:  prog,
		Globals:  opts.Globals,
		Builtins: vm.NewBuiltins(time.Now()),
		out:      opts.Stdout,
		maxDepth: opts.MaxCallDepth,
	}
	if m.Globals == nil {
		m.Globals = make(map[string]vm.Value)
	}
	if m.out == nil {
		m.out = os.Stdout
	}
	if m.maxDepth <= 0 {
		m.maxDepth = DefaultMaxCallDepth
	}
	m.log = log.With().Str("run", uuid.NewString()).Logger()
	return m
}

func (m *Machine) Halted() bool {
	return m.halted
}

func (m *Machine) Logger() *zerolog.Logger {
	return &m.log
}

func (m *Machine) push(v vm.Value) {
	m.Stack = append(m.Stack, v)
}

func (m *Machine) pop() vm.Value {
	if len(m.Stack) == 0 {
		panic(ErrStackUnderrun)
	}
	v := m.Stack[len(m.Stack)-1]
	m.Stack = m.Stack[:len(m.Stack)-1]
	return v
}

func (m *Machine) peek() vm.Value {
	if len(m.Stack) == 0 {
		panic(ErrStackUnderrun)
	}
	return m.Stack[len(m.Stack)-1]
}

// popN removes n values and returns them in pop order.
func (m *Machine) popN(n int) []vm.Value {
	if n > len(m.Stack) {
		panic(ErrStackUnderrun)
	}
	out := make([]vm.Value, n)
	for i := range out {
		out[i] = m.pop()
	}
	return out
}

func (m *Machine) frame() (*Frame, error) {
	if len(m.Frames) == 0 {
		return nil, ErrNoFrame
	}
	return &m.Frames[len(m.Frames)-1], nil
}
