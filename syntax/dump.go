package syntax

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Dump writes an indented outline of the AST.
func Dump(w io.Writer, prog *Program) {
	d := &dumper{w: w}
	for _, fn := range prog.Functions {
		d.line(0, "FUNCTION %s(%s)", fn.Name, strings.Join(fn.Params, ", "))
		d.block(1, fn.Body)
	}
}

type dumper struct {
	w io.Writer
}

func (d *dumper) line(depth int, format string, args ...any) {
	fmt.Fprintf(d.w, "%s%s\n", strings.Repeat("  ", depth), fmt.Sprintf(format, args...))
}

func (d *dumper) block(depth int, stmts []Stmt) {
	for _, s := range stmts {
		d.stmt(depth, s)
	}
}

func (d *dumper) stmt(depth int, s Stmt) {
	switch s := s.(type) {
	case *If:
		for i, c := range s.Conds {
			kw := "IF"
			if i > 0 {
				kw = "ELIF"
			}
			d.line(depth, kw)
			d.expr(depth+1, c)
			d.line(depth, "THEN")
			d.block(depth+1, s.Blocks[i])
		}
		if s.Else != nil {
			d.line(depth, "ELSE")
			d.block(depth+1, s.Else)
		}
	case *For:
		d.line(depth, "FOR %s", s.Var.Name)
		d.expr(depth+1, s.Var.Value)
		d.line(depth, "CONDITION")
		d.expr(depth+1, s.Cond)
		d.line(depth, "STEP")
		d.expr(depth+1, s.Step)
		d.line(depth, "BODY")
		d.block(depth+1, s.Body)
	case *Break:
		d.line(depth, "BREAK")
	case *Continue:
		d.line(depth, "CONTINUE")
	case *Return:
		d.line(depth, "RETURN")
		if s.Result != nil {
			d.expr(depth+1, s.Result)
		}
	case *Variable:
		d.line(depth, "VAR %s", s.Name)
		d.expr(depth+1, s.Value)
	case *Print:
		if s.LineFeed {
			d.line(depth, "PRINT_LINE")
		} else {
			d.line(depth, "PRINT")
		}
		for _, a := range s.Args {
			d.expr(depth+1, a)
		}
	case *ExprStmt:
		d.line(depth, "EXPRESSION")
		d.expr(depth+1, s.X)
	}
}

func (d *dumper) expr(depth int, x Expr) {
	switch x := x.(type) {
	case *Or:
		d.line(depth, "OR")
		d.expr(depth+1, x.X)
		d.expr(depth+1, x.Y)
	case *And:
		d.line(depth, "AND")
		d.expr(depth+1, x.X)
		d.expr(depth+1, x.Y)
	case *Relational:
		d.line(depth, "%s", x.Op)
		d.expr(depth+1, x.X)
		d.expr(depth+1, x.Y)
	case *Arithmetic:
		d.line(depth, "%s", x.Op)
		d.expr(depth+1, x.X)
		d.expr(depth+1, x.Y)
	case *Unary:
		d.line(depth, "UNARY %s", x.Op)
		d.expr(depth+1, x.X)
	case *Call:
		d.line(depth, "CALL")
		d.expr(depth+1, x.Fn)
		for _, a := range x.Args {
			d.expr(depth+1, a)
		}
	case *GetElement:
		d.line(depth, "GET_ELEMENT")
		d.expr(depth+1, x.X)
		d.expr(depth+1, x.Index)
	case *SetElement:
		d.line(depth, "SET_ELEMENT")
		d.expr(depth+1, x.X)
		d.expr(depth+1, x.Index)
		d.expr(depth+1, x.Value)
	case *GetVariable:
		d.line(depth, "GET %s", x.Name)
	case *SetVariable:
		d.line(depth, "SET %s", x.Name)
		d.expr(depth+1, x.Value)
	case *NullLiteral:
		d.line(depth, "null")
	case *BooleanLiteral:
		d.line(depth, "%t", x.Value)
	case *NumberLiteral:
		d.line(depth, "%s", strconv.FormatFloat(x.Value, 'g', -1, 64))
	case *StringLiteral:
		d.line(depth, "%q", x.Value)
	case *ArrayLiteral:
		d.line(depth, "[")
		for _, e := range x.Elems {
			d.expr(depth+1, e)
		}
		d.line(depth, "]")
	case *MapLiteral:
		d.line(depth, "{")
		for _, e := range x.Entries {
			d.line(depth+1, "%q:", e.Key)
			d.expr(depth+2, e.Value)
		}
		d.line(depth, "}")
	}
}
