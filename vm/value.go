package vm

import (
	"sort"
	"strconv"
	"strings"
)

// Kind enumerates the runtime value tags.
type Kind uint8

const (
	NullKind Kind = iota
	BoolKind
	NumberKind
	StringKind
	ArrayKind
	MapKind
	FunctionKind
	BuiltinKind
)

func (k Kind) String() string {
	switch k {
	case NullKind:
		return "null"
	case BoolKind:
		return "boolean"
	case NumberKind:
		return "number"
	case StringKind:
		return "string"
	case ArrayKind:
		return "array"
	case MapKind:
		return "map"
	case FunctionKind:
		return "function"
	case BuiltinKind:
		return "builtin"
	}
	return "unknown"
}

// Value is the closed set of runtime data. Arrays and maps are pointers so
// every copy of the Value aliases the same storage.
type Value interface {
	isValue()
	Kind() Kind
}

type NullValue struct{}

func (NullValue) isValue()   {}
func (NullValue) Kind() Kind { return NullKind }

var Null = NullValue{}

type BoolValue bool

func (BoolValue) isValue()   {}
func (BoolValue) Kind() Kind { return BoolKind }

var (
	BoolTrue  = BoolValue(true)
	BoolFalse = BoolValue(false)
)

type NumberValue float64

func (NumberValue) isValue()   {}
func (NumberValue) Kind() Kind { return NumberKind }

type StrValue string

func (StrValue) isValue()   {}
func (StrValue) Kind() Kind { return StringKind }

type ArrayValue struct {
	Elems []Value
}

func (*ArrayValue) isValue()   {}
func (*ArrayValue) Kind() Kind { return ArrayKind }

func NewArray(elems ...Value) *ArrayValue {
	return &ArrayValue{Elems: elems}
}

type MapValue struct {
	Entries map[string]Value
}

func (*MapValue) isValue()   {}
func (*MapValue) Kind() Kind { return MapKind }

func NewMap() *MapValue {
	return &MapValue{Entries: make(map[string]Value)}
}

// FunctionValue refers to a user function by name.
type FunctionValue string

func (FunctionValue) isValue()   {}
func (FunctionValue) Kind() Kind { return FunctionKind }

type BuiltinValue struct {
	Name string
}

func (BuiltinValue) isValue()   {}
func (BuiltinValue) Kind() Kind { return BuiltinKind }

// IsTrue reports whether v is exactly Boolean true. Conditions only treat
// true as taken; every other value, including non-booleans, is not.
func IsTrue(v Value) bool {
	b, ok := v.(BoolValue)
	return ok && bool(b)
}

// IsFalse reports whether v is exactly Boolean false.
func IsFalse(v Value) bool {
	b, ok := v.(BoolValue)
	return ok && !bool(b)
}

// FormatNumber renders a number the way C's %g does.
func FormatNumber(n float64) string {
	return strconv.FormatFloat(n, 'g', 6, 64)
}

// Format renders a value for print.
func Format(v Value) string {
	var sb strings.Builder
	writeValue(&sb, v)
	return sb.String()
}

func writeValue(sb *strings.Builder, v Value) {
	switch val := v.(type) {
	case NullValue:
		sb.WriteString("null")
	case BoolValue:
		if val {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case NumberValue:
		sb.WriteString(FormatNumber(float64(val)))
	case StrValue:
		sb.WriteString(string(val))
	case *ArrayValue:
		sb.WriteString("[ ")
		for _, e := range val.Elems {
			writeValue(sb, e)
			sb.WriteString(", ")
		}
		sb.WriteString("]")
	case *MapValue:
		keys := make([]string, 0, len(val.Entries))
		for k := range val.Entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString("{ ")
		for _, k := range keys {
			sb.WriteString(k)
			sb.WriteString(":")
			writeValue(sb, val.Entries[k])
			sb.WriteString(", ")
		}
		sb.WriteString("}")
	case FunctionValue:
		sb.WriteString("<function " + string(val) + ">")
	case BuiltinValue:
		sb.WriteString("<builtin " + val.Name + ">")
	}
}
