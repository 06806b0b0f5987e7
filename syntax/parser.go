package syntax

import (
	"fmt"
	"os"
	"strconv"
)

type parser struct {
	name string
	toks []Lexeme
	pos  int
}

// ParsePath reads and parses a source file.
func ParsePath(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, string(data))
}

// Parse builds the AST for a whole source file.
func Parse(name, src string) (*Program, error) {
	toks, err := Scan(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	p := &parser{name: name, toks: toks}
	prog, err := p.program()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return prog, nil
}

// ParseStatements parses a bare statement list, as typed at a prompt.
func ParseStatements(name, src string) ([]Stmt, error) {
	toks, err := Scan(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	p := &parser{name: name, toks: toks}
	var out []Stmt
	for p.cur().Tok != EOF {
		s, err := p.statement()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func (p *parser) cur() Lexeme {
	return p.toks[p.pos]
}

func (p *parser) advance() Lexeme {
	lx := p.toks[p.pos]
	if lx.Tok != EOF {
		p.pos++
	}
	return lx
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrSyntax, p.cur().Line, fmt.Sprintf(format, args...))
}

func (p *parser) expect(t Token) (Lexeme, error) {
	if p.cur().Tok != t {
		return Lexeme{}, p.errorf("expected %s, found %s", t, p.cur().Tok)
	}
	return p.advance(), nil
}

func (p *parser) accept(t Token) bool {
	if p.cur().Tok == t {
		p.advance()
		return true
	}
	return false
}

func (p *parser) program() (*Program, error) {
	prog := &Program{Name: p.name}
	seen := make(map[string]bool)
	for p.cur().Tok != EOF {
		fn, err := p.function()
		if err != nil {
			return nil, err
		}
		if seen[fn.Name] {
			return nil, fmt.Errorf("%w: line %d: function %s defined twice", ErrSyntax, fn.Line, fn.Name)
		}
		seen[fn.Name] = true
		prog.Functions = append(prog.Functions, fn)
	}
	return prog, nil
}

func (p *parser) function() (*Function, error) {
	kw, err := p.expect(FUNCTION)
	if err != nil {
		return nil, err
	}
	name, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}
	fn := &Function{Name: name.Text, Line: kw.Line}
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	if p.cur().Tok != RPAREN {
		seen := make(map[string]bool)
		for {
			param, err := p.expect(IDENT)
			if err != nil {
				return nil, err
			}
			if seen[param.Text] {
				return nil, p.errorf("duplicate parameter %s in %s", param.Text, fn.Name)
			}
			seen[param.Text] = true
			fn.Params = append(fn.Params, param.Text)
			if !p.accept(COMMA) {
				break
			}
		}
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	fn.Body, err = p.block()
	if err != nil {
		return nil, err
	}
	return fn, nil
}

func (p *parser) block() ([]Stmt, error) {
	if _, err := p.expect(LBRACE); err != nil {
		return nil, err
	}
	var out []Stmt
	for p.cur().Tok != RBRACE {
		if p.cur().Tok == EOF {
			return nil, p.errorf("unexpected end of file in block")
		}
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	p.advance()
	return out, nil
}

func (p *parser) statement() (Stmt, error) {
	switch p.cur().Tok {
	case VAR:
		return p.variable()
	case FOR:
		return p.forStmt()
	case IF:
		return p.ifStmt()
	case PRINT, PRINTLINE:
		return p.printStmt()
	case RETURN:
		p.advance()
		ret := &Return{}
		if p.cur().Tok != SEMI {
			x, err := p.expression()
			if err != nil {
				return nil, err
			}
			ret.Result = x
		}
		if _, err := p.expect(SEMI); err != nil {
			return nil, err
		}
		return ret, nil
	case BREAK:
		p.advance()
		if _, err := p.expect(SEMI); err != nil {
			return nil, err
		}
		return &Break{}, nil
	case CONTINUE:
		p.advance()
		if _, err := p.expect(SEMI); err != nil {
			return nil, err
		}
		return &Continue{}, nil
	}
	x, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMI); err != nil {
		return nil, err
	}
	return &ExprStmt{X: x}, nil
}

// var NAME = EXPR;
func (p *parser) variable() (*Variable, error) {
	p.advance()
	name, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(ASSIGN); err != nil {
		return nil, err
	}
	x, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMI); err != nil {
		return nil, err
	}
	return &Variable{Name: name.Text, Value: x}, nil
}

// for NAME = INIT, COND, STEP { ... }
func (p *parser) forStmt() (*For, error) {
	p.advance()
	name, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(ASSIGN); err != nil {
		return nil, err
	}
	init, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA); err != nil {
		return nil, err
	}
	step, err := p.expression()
	if err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &For{
		Var:  &Variable{Name: name.Text, Value: init},
		Cond: cond,
		Step: step,
		Body: body,
	}, nil
}

func (p *parser) ifStmt() (*If, error) {
	out := &If{}
	for {
		p.advance() // if / elif
		cond, err := p.expression()
		if err != nil {
			return nil, err
		}
		body, err := p.block()
		if err != nil {
			return nil, err
		}
		out.Conds = append(out.Conds, cond)
		out.Blocks = append(out.Blocks, body)
		if p.cur().Tok != ELIF {
			break
		}
	}
	if p.accept(ELSE) {
		body, err := p.block()
		if err != nil {
			return nil, err
		}
		out.Else = body
	}
	return out, nil
}

func (p *parser) printStmt() (*Print, error) {
	out := &Print{LineFeed: p.advance().Tok == PRINTLINE}
	if p.cur().Tok != SEMI {
		args, err := p.exprList()
		if err != nil {
			return nil, err
		}
		out.Args = args
	}
	if _, err := p.expect(SEMI); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *parser) exprList() ([]Expr, error) {
	var out []Expr
	for {
		x, err := p.expression()
		if err != nil {
			return nil, err
		}
		out = append(out, x)
		if !p.accept(COMMA) {
			return out, nil
		}
	}
}

func (p *parser) expression() (Expr, error) {
	return p.assignment()
}

func (p *parser) assignment() (Expr, error) {
	lhs, err := p.or()
	if err != nil {
		return nil, err
	}
	if p.cur().Tok != ASSIGN {
		return lhs, nil
	}
	p.advance()
	rhs, err := p.assignment()
	if err != nil {
		return nil, err
	}
	switch target := lhs.(type) {
	case *GetVariable:
		return &SetVariable{Name: target.Name, Value: rhs}, nil
	case *GetElement:
		return &SetElement{X: target.X, Index: target.Index, Value: rhs}, nil
	}
	return nil, p.errorf("invalid assignment target")
}

func (p *parser) or() (Expr, error) {
	x, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.accept(OR) {
		y, err := p.and()
		if err != nil {
			return nil, err
		}
		x = &Or{X: x, Y: y}
	}
	return x, nil
}

func (p *parser) and() (Expr, error) {
	x, err := p.relational()
	if err != nil {
		return nil, err
	}
	for p.accept(AND) {
		y, err := p.relational()
		if err != nil {
			return nil, err
		}
		x = &And{X: x, Y: y}
	}
	return x, nil
}

func (p *parser) relational() (Expr, error) {
	x, err := p.additive()
	if err != nil {
		return nil, err
	}
	for {
		op := p.cur().Tok
		switch op {
		case EQL, NEQ, LT, GT, LE, GE:
		default:
			return x, nil
		}
		p.advance()
		y, err := p.additive()
		if err != nil {
			return nil, err
		}
		x = &Relational{Op: op, X: x, Y: y}
	}
}

func (p *parser) additive() (Expr, error) {
	x, err := p.multiplicative()
	if err != nil {
		return nil, err
	}
	for p.cur().Tok == PLUS || p.cur().Tok == MINUS {
		op := p.advance().Tok
		y, err := p.multiplicative()
		if err != nil {
			return nil, err
		}
		x = &Arithmetic{Op: op, X: x, Y: y}
	}
	return x, nil
}

func (p *parser) multiplicative() (Expr, error) {
	x, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.cur().Tok == STAR || p.cur().Tok == SLASH || p.cur().Tok == PERCENT {
		op := p.advance().Tok
		y, err := p.unary()
		if err != nil {
			return nil, err
		}
		x = &Arithmetic{Op: op, X: x, Y: y}
	}
	return x, nil
}

func (p *parser) unary() (Expr, error) {
	if p.cur().Tok == PLUS || p.cur().Tok == MINUS {
		op := p.advance().Tok
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: op, X: x}, nil
	}
	return p.postfix()
}

func (p *parser) postfix() (Expr, error) {
	x, err := p.operand()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.accept(LPAREN):
			call := &Call{Fn: x}
			if p.cur().Tok != RPAREN {
				call.Args, err = p.exprList()
				if err != nil {
					return nil, err
				}
			}
			if _, err := p.expect(RPAREN); err != nil {
				return nil, err
			}
			x = call
		case p.accept(LBRACK):
			idx, err := p.expression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(RBRACK); err != nil {
				return nil, err
			}
			x = &GetElement{X: x, Index: idx}
		default:
			return x, nil
		}
	}
}

func (p *parser) operand() (Expr, error) {
	lx := p.cur()
	switch lx.Tok {
	case NULL:
		p.advance()
		return &NullLiteral{}, nil
	case TRUE, FALSE:
		p.advance()
		return &BooleanLiteral{Value: lx.Tok == TRUE}, nil
	case NUMBER:
		p.advance()
		f, err := strconv.ParseFloat(lx.Text, 64)
		if err != nil {
			return nil, p.errorf("bad number %q", lx.Text)
		}
		return &NumberLiteral{Value: f}, nil
	case STRING:
		p.advance()
		return &StringLiteral{Value: lx.Text}, nil
	case IDENT:
		p.advance()
		return &GetVariable{Name: lx.Text}, nil
	case LPAREN:
		p.advance()
		x, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return x, nil
	case LBRACK:
		return p.arrayLiteral()
	case LBRACE:
		return p.mapLiteral()
	}
	return nil, p.errorf("unexpected %s", lx.Tok)
}

func (p *parser) arrayLiteral() (Expr, error) {
	p.advance()
	out := &ArrayLiteral{}
	for p.cur().Tok != RBRACK {
		x, err := p.expression()
		if err != nil {
			return nil, err
		}
		out.Elems = append(out.Elems, x)
		if !p.accept(COMMA) {
			break
		}
	}
	if _, err := p.expect(RBRACK); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *parser) mapLiteral() (Expr, error) {
	p.advance()
	out := &MapLiteral{}
	for p.cur().Tok != RBRACE {
		key, err := p.expect(STRING)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(COLON); err != nil {
			return nil, err
		}
		x, err := p.expression()
		if err != nil {
			return nil, err
		}
		out.Entries = append(out.Entries, MapEntry{Key: key.Text, Value: x})
		if !p.accept(COMMA) {
			break
		}
	}
	if _, err := p.expect(RBRACE); err != nil {
		return nil, err
	}
	return out, nil
}
