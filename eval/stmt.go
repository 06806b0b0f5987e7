package eval

import (
	"fmt"
	"io"

	"github.com/marrow-lang/marrow/syntax"
	"github.com/marrow-lang/marrow/vm"
)

func (e *Evaluator) block(stmts []syntax.Stmt) (Outcome, vm.Value, error) {
	for _, s := range stmts {
		out, v, err := e.statement(s)
		if err != nil || out != Normal {
			return out, v, err
		}
	}
	return Normal, nil, nil
}

func (e *Evaluator) scopedBlock(stmts []syntax.Stmt) (Outcome, vm.Value, error) {
	e.pushScope()
	defer e.popScope()
	return e.block(stmts)
}

func (e *Evaluator) statement(s syntax.Stmt) (Outcome, vm.Value, error) {
	switch v := s.(type) {
	case *syntax.Variable:
		e.declare(v.Name, vm.Null)
		val, err := e.expr(v.Value)
		if err != nil {
			return Normal, nil, err
		}
		e.declare(v.Name, val)
	case *syntax.ExprStmt:
		if _, err := e.expr(v.X); err != nil {
			return Normal, nil, err
		}
	case *syntax.Print:
		vals, err := e.exprsReversed(v.Args)
		if err != nil {
			return Normal, nil, err
		}
		for _, val := range vals {
			if _, err := io.WriteString(e.out, vm.Format(val)); err != nil {
				return Normal, nil, err
			}
		}
		if v.LineFeed {
			if _, err := io.WriteString(e.out, "\n"); err != nil {
				return Normal, nil, err
			}
		}
	case *syntax.Return:
		if v.Result == nil {
			return Returned, vm.Null, nil
		}
		val, err := e.expr(v.Result)
		if err != nil {
			return Normal, nil, err
		}
		return Returned, val, nil
	case *syntax.Break:
		if e.loops > 0 {
			return Broke, nil, nil
		}
	case *syntax.Continue:
		if e.loops > 0 {
			return Continued, nil, nil
		}
	case *syntax.If:
		for i, cond := range v.Conds {
			c, err := e.expr(cond)
			if err != nil {
				return Normal, nil, err
			}
			if vm.IsTrue(c) {
				return e.scopedBlock(v.Blocks[i])
			}
		}
		if v.Else != nil {
			return e.scopedBlock(v.Else)
		}
	case *syntax.For:
		return e.forStmt(v)
	default:
		return Normal, nil, fmt.Errorf("Unhandled statement type %T", s)
	}
	return Normal, nil, nil
}

func (e *Evaluator) forStmt(v *syntax.For) (Outcome, vm.Value, error) {
	e.pushScope()
	defer e.popScope()
	if _, _, err := e.statement(v.Var); err != nil {
		return Normal, nil, err
	}
	for {
		c, err := e.expr(v.Cond)
		if err != nil {
			return Normal, nil, err
		}
		if !vm.IsTrue(c) {
			return Normal, nil, nil
		}
		e.loops++
		out, val, err := e.block(v.Body)
		e.loops--
		if err != nil {
			return Normal, nil, err
		}
		switch out {
		case Returned:
			return out, val, nil
		case Broke:
			return Normal, nil, nil
		}
		if _, err := e.expr(v.Step); err != nil {
			return Normal, nil, err
		}
	}
}
