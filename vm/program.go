package vm

import (
	"errors"
	"fmt"
	"io"
	"sort"
)

// Unpatched marks a jump operand whose target is not yet known.
const Unpatched = -1

type Op struct {
	Code Opcode
	Arg  int   // address, slot, frame size or count
	Val  Value // literal for PUSH, StrValue name for GETGLOBAL/SETGLOBAL
}

func (o Op) String() string {
	switch o.Code.Operand() {
	case AddressOperand, CountOperand:
		return fmt.Sprintf("%s %d", o.Code, o.Arg)
	case ValueOperand, NameOperand:
		return fmt.Sprintf("%s %s", o.Code, literal(o.Val))
	}
	return o.Code.String()
}

type Program struct {
	Code      []Op
	Functions map[string]int
}

var (
	ErrEndOfCode     = errors.New("End of code block")
	ErrUnpatchedJump = errors.New("unpatched jump")
	ErrBadOperand    = errors.New("bad operand")
)

func (p *Program) GetInstruction(pc int) (Op, error) {
	if pc < 0 || pc >= len(p.Code) {
		return Op{}, ErrEndOfCode
	}
	return p.Code[pc], nil
}

// Resolve returns the entry index of a user function.
func (p *Program) Resolve(name string) (int, bool) {
	v, ok := p.Functions[name]
	return v, ok
}

// FrameSize returns the number of local slots the function at entry
// reserves.
func (p *Program) FrameSize(entry int) int {
	if entry >= 0 && entry < len(p.Code) && p.Code[entry].Code == ALLOCA {
		return p.Code[entry].Arg
	}
	return 0
}

// Validate checks that every operand has the shape its opcode expects,
// that every jump-class operand addresses an instruction and that every
// function entry points at an ALLOCA.
func (p *Program) Validate() error {
	for i, op := range p.Code {
		if err := op.Check(); err != nil {
			return fmt.Errorf("%w at %d", err, i)
		}
		if !op.Code.IsJump() {
			continue
		}
		if op.Arg == Unpatched {
			return fmt.Errorf("%w: %s at %d", ErrUnpatchedJump, op.Code, i)
		}
		if op.Arg < 0 || op.Arg >= len(p.Code) {
			return fmt.Errorf("%w: %s at %d targets %d outside [0,%d)", ErrUnpatchedJump, op.Code, i, op.Arg, len(p.Code))
		}
	}
	for name, entry := range p.Functions {
		if entry < 0 || entry >= len(p.Code) || p.Code[entry].Code != ALLOCA {
			return fmt.Errorf("function %s: entry %d is not a frame reservation", name, entry)
		}
	}
	return nil
}

// Check reports whether the operand matches what the opcode carries.
func (o Op) Check() error {
	switch o.Code.Operand() {
	case CountOperand:
		if o.Arg < 0 {
			return fmt.Errorf("%w: %s %d", ErrBadOperand, o.Code, o.Arg)
		}
	case NameOperand:
		if _, ok := o.Val.(StrValue); !ok {
			return fmt.Errorf("%w: %s needs a name", ErrBadOperand, o.Code)
		}
	case ValueOperand:
		if o.Val == nil {
			return fmt.Errorf("%w: %s needs a literal", ErrBadOperand, o.Code)
		}
		switch o.Val.Kind() {
		case NullKind, BoolKind, NumberKind, StringKind:
		default:
			return fmt.Errorf("%w: %s of kind %s", ErrBadOperand, o.Code, o.Val.Kind())
		}
	}
	return nil
}

// functionNames returns the function names ordered by entry index.
func (p *Program) functionNames() []string {
	names := make([]string, 0, len(p.Functions))
	for k := range p.Functions {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool {
		return p.Functions[names[i]] < p.Functions[names[j]]
	})
	return names
}

// DebugPrint writes the parseable listing to w.
func (p *Program) DebugPrint(w io.Writer) {
	io.WriteString(w, p.Listing())
}
