package interp

import (
	"errors"
	"fmt"
	"io"

	"github.com/marrow-lang/marrow/vm"
)

// Step executes the instruction at PC and advances it.
func Step(m *Machine) (res StepResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok && errors.Is(e, ErrStackUnderrun) {
				err = fmt.Errorf("%w at pc %d", ErrStackUnderrun, m.PC)
				return
			}
			panic(r)
		}
	}()
	if m.halted {
		return EndStep, nil
	}
	inst, err := m.Program.GetInstruction(m.PC)
	if err != nil {
		m.log.Trace().Int("pc", m.PC).Msg("Step: end of code")
		return ContinueStep, err
	}
	if err := inst.Check(); err != nil {
		return ContinueStep, fmt.Errorf("%w at pc %d", err, m.PC)
	}

	m.log.Trace().
		Str("opcode", inst.Code.String()).
		Int("pc", m.PC).
		Str("op", inst.String()).
		Int("stack_depth", len(m.Stack)).
		Int("frames", len(m.Frames)).
		Msg("Step: executing instruction")

	next := m.PC + 1
	switch inst.Code {
	case vm.NOP:
	case vm.EXIT:
		m.halted = true
		m.log.Trace().Int("stack_depth", len(m.Stack)).Msg("  EXIT")
		return EndStep, nil
	case vm.ALLOCA:
		// The frame was sized by CALL; check it against the reservation.
		f, err := m.frame()
		if err != nil {
			return ContinueStep, err
		}
		if f.Size < inst.Arg {
			grow := inst.Arg - f.Size
			for i := 0; i < grow; i++ {
				m.Locals = append(m.Locals, vm.Null)
			}
			f.Size = inst.Arg
		}
	case vm.CALL:
		callee := m.pop()
		args := m.popN(inst.Arg)
		return m.call(callee, args, next)
	case vm.RETURN:
		v := m.pop()
		m.log.Trace().Interface("value", v).Msg("  RETURN")
		return m.ret(v)

	case vm.JMP:
		m.PC = inst.Arg
		return ContinueStep, nil
	case vm.JFALSE:
		cond := m.pop()
		if !vm.IsTrue(cond) {
			m.log.Trace().Interface("condition", cond).Int("to", inst.Arg).Msg("  JFALSE: jumping")
			m.PC = inst.Arg
			return ContinueStep, nil
		}
	case vm.OR:
		if vm.IsTrue(m.peek()) {
			m.PC = inst.Arg
			return ContinueStep, nil
		}
		m.pop()
	case vm.AND:
		if vm.IsFalse(m.peek()) {
			m.PC = inst.Arg
			return ContinueStep, nil
		}
		m.pop()

	case vm.PRINT:
		for _, v := range m.popN(inst.Arg) {
			if _, err := io.WriteString(m.out, vm.Format(v)); err != nil {
				return ContinueStep, err
			}
		}
	case vm.PRINTLN:
		if _, err := io.WriteString(m.out, "\n"); err != nil {
			return ContinueStep, err
		}

	case vm.EQ, vm.NEQ, vm.LT, vm.GT, vm.LTE, vm.GTE,
		vm.ADD, vm.SUBTRACT, vm.MULTIPLY, vm.DIVIDE, vm.MODULO:
		b := m.pop()
		a := m.pop()
		v, err := vm.Binary(inst.Code, a, b)
		if err != nil {
			return ContinueStep, err
		}
		m.push(v)
		m.log.Trace().Interface("a", a).Interface("b", b).Interface("result", v).Msg("  BINARY_OP")
	case vm.ABS, vm.NEGATE:
		v, err := vm.Unary(inst.Code, m.pop())
		if err != nil {
			return ContinueStep, err
		}
		m.push(v)

	case vm.GETATTR:
		// Stack: A B -> C where C = A[B]
		key := m.pop()
		obj := m.pop()
		m.push(vm.GetElement(obj, key))
	case vm.SETATTR:
		// Stack: C A B -> C, sets A[B] = C
		key := m.pop()
		obj := m.pop()
		val := m.pop()
		m.push(vm.SetElement(obj, key, val))

	case vm.GETGLOBAL:
		name := string(inst.Val.(vm.StrValue))
		v := m.resolveGlobal(name)
		m.push(v)
		m.log.Trace().Str("variable", name).Interface("value", v).Msg("  GETGLOBAL")
	case vm.SETGLOBAL:
		name := string(inst.Val.(vm.StrValue))
		m.Globals[name] = m.peek()
	case vm.GETLOCAL:
		f, err := m.frame()
		if err != nil {
			return ContinueStep, err
		}
		if inst.Arg < 0 || inst.Arg >= f.Size {
			m.push(vm.Null)
			break
		}
		m.push(m.Locals[f.Base+inst.Arg])
	case vm.SETLOCAL:
		f, err := m.frame()
		if err != nil {
			return ContinueStep, err
		}
		if inst.Arg >= 0 && inst.Arg < f.Size {
			m.Locals[f.Base+inst.Arg] = m.peek()
		}

	case vm.PUSH:
		m.push(inst.Val)
	case vm.BUILD_LIST:
		m.push(vm.NewArray(m.popN(inst.Arg)...))
	case vm.BUILD_DICT:
		// Stack: K1 V1 ... Kn Vn -> {K1: V1, ...}
		n := inst.Arg * 2
		if n > len(m.Stack) {
			panic(ErrStackUnderrun)
		}
		pairs := m.Stack[len(m.Stack)-n:]
		d := vm.NewMap()
		for i := 0; i < n; i += 2 {
			if k, ok := pairs[i].(vm.StrValue); ok {
				d.Entries[string(k)] = pairs[i+1]
			}
		}
		m.Stack = m.Stack[:len(m.Stack)-n]
		m.push(d)
	case vm.POP:
		m.pop()
	default:
		return ContinueStep, fmt.Errorf("Unhandled opcode %s at %d", inst.Code, m.PC)
	}
	m.PC = next
	return ContinueStep, nil
}
