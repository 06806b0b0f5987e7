package vm

import (
	"fmt"

	"github.com/marrow-lang/marrow/syntax"
)

func (cc *compileContext) statement(s syntax.Stmt) error {
	switch v := s.(type) {
	case *syntax.Variable:
		// The name is in scope while its initializer runs and reads null,
		// never what a reused slot or an earlier iteration left behind.
		slot := cc.scope.declare(v.Name)
		cc.emitVal(PUSH, Null)
		cc.emitArg(SETLOCAL, slot)
		cc.emit(POP)
		if err := cc.expr(v.Value); err != nil {
			return err
		}
		cc.emitArg(SETLOCAL, slot)
		cc.emit(POP)
	case *syntax.ExprStmt:
		if err := cc.expr(v.X); err != nil {
			return err
		}
		cc.emit(POP)
	case *syntax.Print:
		if err := cc.exprsReversed(v.Args); err != nil {
			return err
		}
		if len(v.Args) > 0 {
			cc.emitArg(PRINT, len(v.Args))
		}
		if v.LineFeed {
			cc.emit(PRINTLN)
		}
	case *syntax.Return:
		if v.Result == nil {
			cc.emitVal(PUSH, Null)
		} else if err := cc.expr(v.Result); err != nil {
			return err
		}
		cc.emit(RETURN)
	case *syntax.If:
		return cc.ifStmt(v)
	case *syntax.For:
		return cc.forStmt(v)
	case *syntax.Break:
		if len(cc.loops) == 0 {
			return nil
		}
		loop := cc.loops[len(cc.loops)-1]
		loop.breaks = append(loop.breaks, cc.emitArg(JMP, Unpatched))
	case *syntax.Continue:
		if len(cc.loops) == 0 {
			return nil
		}
		loop := cc.loops[len(cc.loops)-1]
		loop.continues = append(loop.continues, cc.emitArg(JMP, Unpatched))
	default:
		return fmt.Errorf("Unhandled statement type %T", s)
	}
	return nil
}

// ifStmt lowers
//
//	if c1 { b1 } elif c2 { b2 } else { b3 }
//
// into
//
//	<c1> JFALSE n1 <b1> JMP end
//	n1: <c2> JFALSE n2 <b2> JMP end
//	n2: <b3>
//	end:
func (cc *compileContext) ifStmt(v *syntax.If) error {
	var ends []int
	for i, cond := range v.Conds {
		if err := cc.expr(cond); err != nil {
			return err
		}
		jfalse := cc.emitArg(JFALSE, Unpatched)
		if err := cc.scopedBlock(v.Blocks[i]); err != nil {
			return err
		}
		ends = append(ends, cc.emitArg(JMP, Unpatched))
		cc.patch(jfalse)
	}
	if v.Else != nil {
		if err := cc.scopedBlock(v.Else); err != nil {
			return err
		}
	}
	for _, j := range ends {
		cc.patch(j)
	}
	return nil
}

// forStmt lowers
//
//	for i = init, cond, step { body }
//
// into
//
//	<init> SETLOCAL i POP
//	top: <cond> JFALSE end
//	<body>
//	cont: <step> POP JMP top
//	end:
//
// The loop variable, condition, step and body share one scope.
func (cc *compileContext) forStmt(v *syntax.For) error {
	cc.scope.push()
	defer cc.scope.pop()
	if err := cc.statement(v.Var); err != nil {
		return err
	}
	top := cc.here()
	if err := cc.expr(v.Cond); err != nil {
		return err
	}
	jfalse := cc.emitArg(JFALSE, Unpatched)

	loop := &loopContext{}
	cc.loops = append(cc.loops, loop)
	err := cc.block(v.Body)
	cc.loops = cc.loops[:len(cc.loops)-1]
	if err != nil {
		return err
	}

	for _, j := range loop.continues {
		cc.patch(j)
	}
	if err := cc.expr(v.Step); err != nil {
		return err
	}
	cc.emit(POP)
	cc.emitArg(JMP, top)
	cc.patch(jfalse)
	for _, j := range loop.breaks {
		cc.patch(j)
	}
	return nil
}

// exprsReversed pushes xs last to first so that popping yields them in
// source order.
func (cc *compileContext) exprsReversed(xs []syntax.Expr) error {
	for i := len(xs) - 1; i >= 0; i-- {
		if err := cc.expr(xs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (cc *compileContext) expr(e syntax.Expr) error {
	switch v := e.(type) {
	case *syntax.NullLiteral:
		cc.emitVal(PUSH, Null)
	case *syntax.BooleanLiteral:
		cc.emitVal(PUSH, BoolValue(v.Value))
	case *syntax.NumberLiteral:
		cc.emitVal(PUSH, NumberValue(v.Value))
	case *syntax.StringLiteral:
		cc.emitVal(PUSH, StrValue(v.Value))
	case *syntax.ArrayLiteral:
		if err := cc.exprsReversed(v.Elems); err != nil {
			return err
		}
		cc.emitArg(BUILD_LIST, len(v.Elems))
	case *syntax.MapLiteral:
		for _, ent := range v.Entries {
			cc.emitVal(PUSH, StrValue(ent.Key))
			if err := cc.expr(ent.Value); err != nil {
				return err
			}
		}
		cc.emitArg(BUILD_DICT, len(v.Entries))
	case *syntax.GetVariable:
		cc.getVariable(v.Name)
	case *syntax.SetVariable:
		if err := cc.expr(v.Value); err != nil {
			return err
		}
		cc.setVariable(v.Name)
	case *syntax.GetElement:
		if err := cc.expr(v.X); err != nil {
			return err
		}
		if err := cc.expr(v.Index); err != nil {
			return err
		}
		cc.emit(GETATTR)
	case *syntax.SetElement:
		if err := cc.expr(v.Value); err != nil {
			return err
		}
		if err := cc.expr(v.X); err != nil {
			return err
		}
		if err := cc.expr(v.Index); err != nil {
			return err
		}
		cc.emit(SETATTR)
	case *syntax.Call:
		if err := cc.exprsReversed(v.Args); err != nil {
			return err
		}
		if err := cc.expr(v.Fn); err != nil {
			return err
		}
		cc.emitArg(CALL, len(v.Args))
	case *syntax.Or:
		return cc.logical(OR, v.X, v.Y)
	case *syntax.And:
		return cc.logical(AND, v.X, v.Y)
	case *syntax.Relational:
		return cc.binary(v.Op, v.X, v.Y)
	case *syntax.Arithmetic:
		return cc.binary(v.Op, v.X, v.Y)
	case *syntax.Unary:
		if err := cc.expr(v.X); err != nil {
			return err
		}
		switch v.Op {
		case syntax.PLUS:
			cc.emit(ABS)
		case syntax.MINUS:
			cc.emit(NEGATE)
		default:
			return fmt.Errorf("Unhandled unary operation %s", v.Op)
		}
	default:
		return fmt.Errorf("Unhandled expr type %T", e)
	}
	return nil
}

// logical emits the short-circuit form: the conditional jump skips y and
// leaves x on the stack.
func (cc *compileContext) logical(op Opcode, x, y syntax.Expr) error {
	if err := cc.expr(x); err != nil {
		return err
	}
	j := cc.emitArg(op, Unpatched)
	if err := cc.expr(y); err != nil {
		return err
	}
	cc.patch(j)
	return nil
}

func (cc *compileContext) binary(tok syntax.Token, x, y syntax.Expr) error {
	op, err := binOp(tok)
	if err != nil {
		return err
	}
	if err := cc.expr(x); err != nil {
		return err
	}
	if err := cc.expr(y); err != nil {
		return err
	}
	cc.emit(op)
	return nil
}

func binOp(tok syntax.Token) (Opcode, error) {
	switch tok {
	case syntax.EQL: // ==
		return EQ, nil
	case syntax.NEQ: // !=
		return NEQ, nil
	case syntax.LT: // <
		return LT, nil
	case syntax.GT: // >
		return GT, nil
	case syntax.LE: // <=
		return LTE, nil
	case syntax.GE: // >=
		return GTE, nil
	case syntax.PLUS: // +
		return ADD, nil
	case syntax.MINUS: // -
		return SUBTRACT, nil
	case syntax.STAR: // *
		return MULTIPLY, nil
	case syntax.SLASH: // /
		return DIVIDE, nil
	case syntax.PERCENT: // %
		return MODULO, nil
	}
	return NOP, fmt.Errorf("compileContext: Unhandled binary operation %s", tok)
}
