package eval

import (
	"fmt"

	"github.com/marrow-lang/marrow/syntax"
	"github.com/marrow-lang/marrow/vm"
)

var binaryOps = map[syntax.Token]vm.Opcode{
	syntax.EQL:     vm.EQ,
	syntax.NEQ:     vm.NEQ,
	syntax.LT:      vm.LT,
	syntax.GT:      vm.GT,
	syntax.LE:      vm.LTE,
	syntax.GE:      vm.GTE,
	syntax.PLUS:    vm.ADD,
	syntax.MINUS:   vm.SUBTRACT,
	syntax.STAR:    vm.MULTIPLY,
	syntax.SLASH:   vm.DIVIDE,
	syntax.PERCENT: vm.MODULO,
}

// exprsReversed evaluates xs last to first, matching the order in which
// compiled code pushes arguments, and returns the values in source order.
func (e *Evaluator) exprsReversed(xs []syntax.Expr) ([]vm.Value, error) {
	out := make([]vm.Value, len(xs))
	for i := len(xs) - 1; i >= 0; i-- {
		v, err := e.expr(xs[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *Evaluator) expr(x syntax.Expr) (vm.Value, error) {
	switch v := x.(type) {
	case *syntax.NullLiteral:
		return vm.Null, nil
	case *syntax.BooleanLiteral:
		return vm.BoolValue(v.Value), nil
	case *syntax.NumberLiteral:
		return vm.NumberValue(v.Value), nil
	case *syntax.StringLiteral:
		return vm.StrValue(v.Value), nil
	case *syntax.ArrayLiteral:
		elems, err := e.exprsReversed(v.Elems)
		if err != nil {
			return nil, err
		}
		return vm.NewArray(elems...), nil
	case *syntax.MapLiteral:
		m := vm.NewMap()
		for _, ent := range v.Entries {
			val, err := e.expr(ent.Value)
			if err != nil {
				return nil, err
			}
			m.Entries[ent.Key] = val
		}
		return m, nil
	case *syntax.GetVariable:
		return e.lookup(v.Name), nil
	case *syntax.SetVariable:
		val, err := e.expr(v.Value)
		if err != nil {
			return nil, err
		}
		e.assign(v.Name, val)
		return val, nil
	case *syntax.GetElement:
		obj, err := e.expr(v.X)
		if err != nil {
			return nil, err
		}
		key, err := e.expr(v.Index)
		if err != nil {
			return nil, err
		}
		return vm.GetElement(obj, key), nil
	case *syntax.SetElement:
		val, err := e.expr(v.Value)
		if err != nil {
			return nil, err
		}
		obj, err := e.expr(v.X)
		if err != nil {
			return nil, err
		}
		key, err := e.expr(v.Index)
		if err != nil {
			return nil, err
		}
		return vm.SetElement(obj, key, val), nil
	case *syntax.Call:
		args, err := e.exprsReversed(v.Args)
		if err != nil {
			return nil, err
		}
		callee, err := e.expr(v.Fn)
		if err != nil {
			return nil, err
		}
		return e.callValue(callee, args)
	case *syntax.Or:
		l, err := e.expr(v.X)
		if err != nil {
			return nil, err
		}
		if vm.IsTrue(l) {
			return l, nil
		}
		return e.expr(v.Y)
	case *syntax.And:
		l, err := e.expr(v.X)
		if err != nil {
			return nil, err
		}
		if vm.IsFalse(l) {
			return l, nil
		}
		return e.expr(v.Y)
	case *syntax.Relational:
		return e.binary(v.Op, v.X, v.Y)
	case *syntax.Arithmetic:
		return e.binary(v.Op, v.X, v.Y)
	case *syntax.Unary:
		a, err := e.expr(v.X)
		if err != nil {
			return nil, err
		}
		switch v.Op {
		case syntax.PLUS:
			return vm.Unary(vm.ABS, a)
		case syntax.MINUS:
			return vm.Unary(vm.NEGATE, a)
		}
		return nil, fmt.Errorf("Unhandled unary operation %s", v.Op)
	}
	return nil, fmt.Errorf("Unhandled expr type %T", x)
}

func (e *Evaluator) binary(tok syntax.Token, x, y syntax.Expr) (vm.Value, error) {
	op, ok := binaryOps[tok]
	if !ok {
		return nil, fmt.Errorf("Unhandled binary operation %s", tok)
	}
	a, err := e.expr(x)
	if err != nil {
		return nil, err
	}
	b, err := e.expr(y)
	if err != nil {
		return nil, err
	}
	return vm.Binary(op, a, b)
}
