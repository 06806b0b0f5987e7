package vm

import (
	"math"
	"sort"
	"time"
)

// BuiltinFunc is a native function. Builtins never fail: arguments of the
// wrong shape produce a neutral result instead.
type BuiltinFunc func(args []Value) Value

// Builtins is the native function table for one running program.
type Builtins map[string]BuiltinFunc

// NewBuiltins returns the builtin table. clock() measures from start.
func NewBuiltins(start time.Time) Builtins {
	return Builtins{
		"length": builtinLength,
		"push":   builtinPush,
		"pop":    builtinPop,
		"erase":  builtinErase,
		"sqrt":   builtinSqrt,
		"clock": func(args []Value) Value {
			return NumberValue(time.Since(start).Seconds())
		},
	}
}

// Lookup returns a reference to the named builtin.
func (b Builtins) Lookup(name string) (BuiltinValue, bool) {
	if _, ok := b[name]; !ok {
		return BuiltinValue{}, false
	}
	return BuiltinValue{Name: name}, true
}

// Call invokes a builtin by reference. Unknown names yield Null.
func (b Builtins) Call(ref BuiltinValue, args []Value) Value {
	fn, ok := b[ref.Name]
	if !ok {
		return Null
	}
	return fn(args)
}

func (b Builtins) Names() []string {
	out := make([]string, 0, len(b))
	for k := range b {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// length(array|map) -> Number
func builtinLength(args []Value) Value {
	if len(args) != 1 {
		return NumberValue(0)
	}
	switch v := args[0].(type) {
	case *ArrayValue:
		return NumberValue(len(v.Elems))
	case *MapValue:
		return NumberValue(len(v.Entries))
	}
	return NumberValue(0)
}

// push(array, value) -> array
func builtinPush(args []Value) Value {
	if len(args) != 2 {
		return Null
	}
	arr, ok := args[0].(*ArrayValue)
	if !ok {
		return Null
	}
	arr.Elems = append(arr.Elems, args[1])
	return arr
}

// pop(array) -> last element
func builtinPop(args []Value) Value {
	if len(args) != 1 {
		return Null
	}
	arr, ok := args[0].(*ArrayValue)
	if !ok || len(arr.Elems) == 0 {
		return Null
	}
	last := arr.Elems[len(arr.Elems)-1]
	arr.Elems = arr.Elems[:len(arr.Elems)-1]
	return last
}

// erase(map, key) -> removed value
func builtinErase(args []Value) Value {
	if len(args) != 2 {
		return Null
	}
	m, ok := args[0].(*MapValue)
	if !ok {
		return Null
	}
	key, ok := args[1].(StrValue)
	if !ok {
		return Null
	}
	v, ok := m.Entries[string(key)]
	if !ok {
		return Null
	}
	delete(m.Entries, string(key))
	return v
}

func builtinSqrt(args []Value) Value {
	if len(args) != 1 {
		return NumberValue(0)
	}
	n, ok := args[0].(NumberValue)
	if !ok {
		return NumberValue(0)
	}
	return NumberValue(math.Sqrt(float64(n)))
}
