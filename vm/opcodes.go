package vm

type Opcode uint32

const (
	NOP Opcode = iota
	// PRE-STACK ... TOS+1 TOS | OP |  POST-STACK |
	EXIT   // | halts the machine |
	ALLOCA // | arg: frame size, reserves local slots |
	CALL   // An ... A1 Fn | arg: n, calls Fn(A1..An) | R
	RETURN // A | returns A to the caller |

	JMP    // | jumps unconditionally to arg |
	JFALSE // A | jumps to arg unless A is true |
	OR     // A | A if A is true and jumps to arg, else pops A |
	AND    // A | A if A is false and jumps to arg, else pops A |

	PRINT   // An ... A1 | arg: n, writes A1..An |
	PRINTLN // | writes a newline |

	EQ  // A B | C = A == B | C
	NEQ // A B | C = A != B | C
	LT  // A B | C = A < B | C
	GT  // A B | C = A > B | C
	LTE // A B | C = A <= B | C
	GTE // A B | C = A >= B | C

	ADD      // A B | C = A + B | C
	SUBTRACT // A B | C = A - B | C
	MULTIPLY // A B | C = A * B | C
	DIVIDE   // A B | C = A / B | C
	MODULO   // A B | C = A % B | C
	ABS      // A | B = |A| | B
	NEGATE   // A | B = -A | B

	GETATTR // A B | C = A[B] | C
	SETATTR // C A B | A[B] = C | C

	GETGLOBAL // | arg: name | A
	SETGLOBAL // A | arg: name, global = A | A
	GETLOCAL  // | arg: slot | A
	SETLOCAL  // A | arg: slot, local = A | A

	PUSH       // | arg: literal | A
	BUILD_LIST // An ... A1 | arg: n | [A1 .. An]
	BUILD_DICT // K1 V1 ... Kn Vn | arg: n | {K1: V1, ...}
	POP        // A | |

	OpcodeMax
)

func (o Opcode) String() string {
	switch o {
	case NOP:
		return "NOP"
	case EXIT:
		return "EXIT"
	case ALLOCA:
		return "ALLOCA"
	case CALL:
		return "CALL"
	case RETURN:
		return "RETURN"
	case JMP:
		return "JMP"
	case JFALSE:
		return "JFALSE"
	case OR:
		return "OR"
	case AND:
		return "AND"
	case PRINT:
		return "PRINT"
	case PRINTLN:
		return "PRINTLN"
	case EQ:
		return "EQ"
	case NEQ:
		return "NEQ"
	case LT:
		return "LT"
	case GT:
		return "GT"
	case LTE:
		return "LTE"
	case GTE:
		return "GTE"
	case ADD:
		return "ADD"
	case SUBTRACT:
		return "SUBTRACT"
	case MULTIPLY:
		return "MULTIPLY"
	case DIVIDE:
		return "DIVIDE"
	case MODULO:
		return "MODULO"
	case ABS:
		return "ABS"
	case NEGATE:
		return "NEGATE"
	case GETATTR:
		return "GETATTR"
	case SETATTR:
		return "SETATTR"
	case GETGLOBAL:
		return "GETGLOBAL"
	case SETGLOBAL:
		return "SETGLOBAL"
	case GETLOCAL:
		return "GETLOCAL"
	case SETLOCAL:
		return "SETLOCAL"
	case PUSH:
		return "PUSH"
	case BUILD_LIST:
		return "BUILD_LIST"
	case BUILD_DICT:
		return "BUILD_DICT"
	case POP:
		return "POP"
	}
	panic("Unnamed opcode")
}

// OperandKind describes what an opcode carries in its operand.
type OperandKind int

const (
	NoOperand      OperandKind = iota
	AddressOperand             // instruction index, backpatched
	CountOperand               // slot, frame size or element count
	ValueOperand               // literal Value
	NameOperand                // global name
)

func (o Opcode) Operand() OperandKind {
	switch o {
	case JMP, JFALSE, OR, AND:
		return AddressOperand
	case ALLOCA, CALL, PRINT, GETLOCAL, SETLOCAL, BUILD_LIST, BUILD_DICT:
		return CountOperand
	case PUSH:
		return ValueOperand
	case GETGLOBAL, SETGLOBAL:
		return NameOperand
	}
	return NoOperand
}

// IsJump reports whether the operand is an instruction address.
func (o Opcode) IsJump() bool {
	return o.Operand() == AddressOperand
}

var opcodesByName = func() map[string]Opcode {
	m := make(map[string]Opcode)
	for o := NOP; o < OpcodeMax; o++ {
		m[o.String()] = o
	}
	return m
}()

// LookupOpcode maps a mnemonic back to its opcode.
func LookupOpcode(name string) (Opcode, bool) {
	o, ok := opcodesByName[name]
	return o, ok
}
