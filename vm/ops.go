package vm

import (
	"fmt"
	"math"
)

// Equal implements ==.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case NullValue:
		_, ok := b.(NullValue)
		return ok
	case BoolValue:
		bv, ok := b.(BoolValue)
		return ok && av == bv
	case NumberValue:
		bv, ok := b.(NumberValue)
		return ok && av == bv
	case StrValue:
		bv, ok := b.(StrValue)
		return ok && av == bv
	}
	return false
}

// NotEqual implements !=. It is not the negation of Equal: a null on exactly
// one side is unequal, but other cross-type pairs are not.
func NotEqual(a, b Value) bool {
	an, bn := a.Kind() == NullKind, b.Kind() == NullKind
	switch {
	case an && bn:
		return false
	case an || bn:
		return true
	}
	switch av := a.(type) {
	case BoolValue:
		bv, ok := b.(BoolValue)
		return ok && av != bv
	case NumberValue:
		bv, ok := b.(NumberValue)
		return ok && av != bv
	case StrValue:
		bv, ok := b.(StrValue)
		return ok && av != bv
	}
	return false
}

func numbers(a, b Value) (float64, float64, bool) {
	av, ok := a.(NumberValue)
	if !ok {
		return 0, 0, false
	}
	bv, ok := b.(NumberValue)
	if !ok {
		return 0, 0, false
	}
	return float64(av), float64(bv), true
}

// Binary applies a binary arithmetic or relational opcode to two operands.
// Mismatched operand types never fail: relational operators yield false and
// arithmetic ones yield 0.
func Binary(op Opcode, a, b Value) (Value, error) {
	switch op {
	case EQ:
		return BoolValue(Equal(a, b)), nil
	case NEQ:
		return BoolValue(NotEqual(a, b)), nil
	case LT, GT, LTE, GTE:
		x, y, ok := numbers(a, b)
		if !ok {
			return BoolFalse, nil
		}
		return BoolValue(compare(op, x, y)), nil
	case ADD:
		if as, ok := a.(StrValue); ok {
			if bs, ok := b.(StrValue); ok {
				return as + bs, nil
			}
			return NumberValue(0), nil
		}
		fallthrough
	case SUBTRACT, MULTIPLY, DIVIDE, MODULO:
		x, y, ok := numbers(a, b)
		if !ok {
			return NumberValue(0), nil
		}
		return NumberValue(arith(op, x, y)), nil
	}
	return nil, fmt.Errorf("Binary: %s is not a binary operator", op)
}

func compare(op Opcode, x, y float64) bool {
	switch op {
	case LT:
		return x < y
	case GT:
		return x > y
	case LTE:
		return x <= y
	case GTE:
		return x >= y
	}
	panic("Unhandled compare code")
}

func arith(op Opcode, x, y float64) float64 {
	switch op {
	case ADD:
		return x + y
	case SUBTRACT:
		return x - y
	case MULTIPLY:
		return x * y
	case DIVIDE:
		if y == 0 {
			return 0
		}
		return x / y
	case MODULO:
		if y == 0 {
			return x
		}
		return math.Mod(x, y)
	}
	panic("Unhandled arith code")
}

// Unary applies ABS or NEGATE. Non-numbers yield 0.
func Unary(op Opcode, a Value) (Value, error) {
	n, ok := a.(NumberValue)
	switch op {
	case ABS:
		if !ok {
			return NumberValue(0), nil
		}
		return NumberValue(math.Abs(float64(n))), nil
	case NEGATE:
		if !ok {
			return NumberValue(0), nil
		}
		return -n, nil
	}
	return nil, fmt.Errorf("Unary: %s is not a unary operator", op)
}

// arrayIndex converts an index operand into a position in arr, reporting
// false for non-numbers and out-of-range positions.
func arrayIndex(arr *ArrayValue, key Value) (int, bool) {
	n, ok := key.(NumberValue)
	if !ok || math.IsNaN(float64(n)) || n < 0 {
		return 0, false
	}
	f := math.Trunc(float64(n))
	if f >= float64(len(arr.Elems)) {
		return 0, false
	}
	return int(f), true
}

// GetElement reads obj[key], yielding Null on any mismatch.
func GetElement(obj, key Value) Value {
	switch o := obj.(type) {
	case *ArrayValue:
		if i, ok := arrayIndex(o, key); ok {
			return o.Elems[i]
		}
	case *MapValue:
		if k, ok := key.(StrValue); ok {
			if v, ok := o.Entries[string(k)]; ok {
				return v
			}
		}
	}
	return Null
}

// SetElement writes obj[key] = val when the shapes match and always
// returns val.
func SetElement(obj, key, val Value) Value {
	switch o := obj.(type) {
	case *ArrayValue:
		if i, ok := arrayIndex(o, key); ok {
			o.Elems[i] = val
		}
	case *MapValue:
		if k, ok := key.(StrValue); ok {
			o.Entries[string(k)] = val
		}
	}
	return val
}
