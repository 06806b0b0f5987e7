package interp

import (
	"fmt"

	"github.com/marrow-lang/marrow/vm"
)

// call dispatches a CALL whose callee and arguments have already been
// popped. returnPC is where execution resumes after a user function
// returns. The result reports whether a frame was pushed.
func (m *Machine) call(callee vm.Value, args []vm.Value, returnPC int) (StepResult, error) {
	switch fn := callee.(type) {
	case vm.BuiltinValue:
		m.push(m.Builtins.Call(fn, args))
		m.PC = returnPC
		return ContinueStep, nil
	case vm.FunctionValue:
		entry, ok := m.Program.Resolve(string(fn))
		if !ok {
			break
		}
		if len(m.Frames) >= m.maxDepth {
			return ContinueStep, fmt.Errorf("%w: calling %s at depth %d", ErrCallDepthExceeded, fn, len(m.Frames))
		}
		size := max(m.Program.FrameSize(entry), len(args))
		f := Frame{
			Function:  string(fn),
			Base:      len(m.Locals),
			Size:      size,
			ReturnPC:  returnPC,
			StackBase: len(m.Stack),
		}
		for i := 0; i < size; i++ {
			if i < len(args) {
				m.Locals = append(m.Locals, args[i])
			} else {
				m.Locals = append(m.Locals, vm.Null)
			}
		}
		m.Frames = append(m.Frames, f)
		m.PC = entry
		m.log.Trace().Str("function", f.Function).Int("entry", entry).Int("frame_size", size).Int("depth", len(m.Frames)).Msg("  CALL: pushed frame")
		return CallStep, nil
	}
	m.log.Trace().Interface("callee", callee).Msg("  CALL: not callable")
	m.push(vm.Null)
	m.PC = returnPC
	return ContinueStep, nil
}

// ret unwinds the innermost frame and leaves result on the caller's stack.
func (m *Machine) ret(result vm.Value) (StepResult, error) {
	f, err := m.frame()
	if err != nil {
		return ContinueStep, err
	}
	m.Locals = m.Locals[:f.Base]
	if len(m.Stack) > f.StackBase {
		m.Stack = m.Stack[:f.StackBase]
	}
	m.push(result)
	m.PC = f.ReturnPC
	m.Frames = m.Frames[:len(m.Frames)-1]
	if m.PC < 0 {
		m.halted = true
		return EndStep, nil
	}
	return ReturnStep, nil
}

// CallFunction runs a single user function or builtin by name to
// completion and returns its result. Globals persist on the machine.
func (m *Machine) CallFunction(name string, args ...vm.Value) (vm.Value, error) {
	callee := m.resolveGlobal(name)
	switch callee.(type) {
	case vm.FunctionValue, vm.BuiltinValue:
	default:
		return nil, fmt.Errorf("%s is not callable", name)
	}
	m.halted = false
	res, err := m.call(callee, args, -1)
	if err != nil {
		return nil, err
	}
	if res != CallStep {
		return m.pop(), nil
	}
	if err := m.loop(); err != nil {
		return nil, err
	}
	return m.pop(), nil
}

// resolveGlobal looks a name up in the global table, then among user
// functions, then among builtins.
func (m *Machine) resolveGlobal(name string) vm.Value {
	if v, ok := m.Globals[name]; ok {
		return v
	}
	if _, ok := m.Program.Resolve(name); ok {
		return vm.FunctionValue(name)
	}
	if b, ok := m.Builtins.Lookup(name); ok {
		return b
	}
	return vm.Null
}
