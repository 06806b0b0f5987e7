package interp

import (
	"github.com/marrow-lang/marrow/vm"
)

// Start resets the machine to the program prologue. It fails with
// ErrNoEntryPoint when the program has no main function.
func (m *Machine) Start() error {
	if _, ok := m.Program.Resolve("main"); !ok {
		return ErrNoEntryPoint
	}
	m.PC = 0
	m.Stack = nil
	m.Locals = nil
	m.Frames = nil
	m.halted = false
	return nil
}

// Run executes the program from its prologue until EXIT and returns the
// value left on top of the operand stack.
func (m *Machine) Run() (vm.Value, error) {
	if err := m.Start(); err != nil {
		return nil, err
	}
	m.log.Debug().Int("instructions", len(m.Program.Code)).Msg("Run: starting")
	if err := m.loop(); err != nil {
		m.log.Debug().Err(err).Int("pc", m.PC).Msg("Run: failed")
		return nil, err
	}
	if len(m.Stack) == 0 {
		return vm.Null, nil
	}
	return m.Stack[len(m.Stack)-1], nil
}

func (m *Machine) loop() error {
	steps := 0
	for {
		steps++
		res, err := Step(m)
		if err != nil {
			return err
		}
		if res == EndStep {
			m.log.Debug().Int("steps", steps).Msg("Run: halted")
			return nil
		}
	}
}

// RunToEnd runs prog to completion and returns its result.
func RunToEnd(prog *vm.Program, opts Options) (vm.Value, error) {
	return New(prog, opts).Run()
}
