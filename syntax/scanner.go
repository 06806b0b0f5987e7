package syntax

import (
	"errors"
	"fmt"
)

var ErrSyntax = errors.New("syntax error")

type scanner struct {
	src  string
	pos  int
	line int
	out  []Lexeme
}

// Scan splits src into lexemes. The result always ends with an EOF lexeme.
func Scan(src string) ([]Lexeme, error) {
	s := &scanner{src: src, line: 1}
	for {
		lx, err := s.next()
		if err != nil {
			return nil, err
		}
		s.out = append(s.out, lx)
		if lx.Tok == EOF {
			return s.out, nil
		}
	}
}

func (s *scanner) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrSyntax, s.line, fmt.Sprintf(format, args...))
}

func (s *scanner) peek(off int) byte {
	if s.pos+off < len(s.src) {
		return s.src[s.pos+off]
	}
	return 0
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '\n':
			s.line++
			s.pos++
		case c == ' ' || c == '\t' || c == '\r':
			s.pos++
		case c == '/' && s.peek(1) == '/':
			for s.pos < len(s.src) && s.src[s.pos] != '\n' {
				s.pos++
			}
		default:
			return
		}
	}
}

func isLetter(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func (s *scanner) next() (Lexeme, error) {
	s.skipSpace()
	if s.pos >= len(s.src) {
		return Lexeme{Tok: EOF, Line: s.line}, nil
	}
	start := s.pos
	c := s.src[s.pos]
	lx := func(t Token) (Lexeme, error) {
		return Lexeme{Tok: t, Text: s.src[start:s.pos], Line: s.line}, nil
	}

	switch {
	case isLetter(c):
		for s.pos < len(s.src) && (isLetter(s.src[s.pos]) || isDigit(s.src[s.pos])) {
			s.pos++
		}
		if kw, ok := keywords[s.src[start:s.pos]]; ok {
			return lx(kw)
		}
		return lx(IDENT)
	case isDigit(c):
		for isDigit(s.peek(0)) {
			s.pos++
		}
		if s.peek(0) == '.' && isDigit(s.peek(1)) {
			s.pos++
			for isDigit(s.peek(0)) {
				s.pos++
			}
		}
		return lx(NUMBER)
	case c == '\'' || c == '"':
		line := s.line
		s.pos++
		for s.pos < len(s.src) && s.src[s.pos] != c {
			if s.src[s.pos] == '\n' {
				s.line++
			}
			s.pos++
		}
		if s.pos >= len(s.src) {
			s.line = line
			return Lexeme{}, s.errorf("unterminated string")
		}
		s.pos++
		return Lexeme{Tok: STRING, Text: s.src[start+1 : s.pos-1], Line: line}, nil
	}

	s.pos++
	switch c {
	case '=':
		if s.peek(0) == '=' {
			s.pos++
			return lx(EQL)
		}
		return lx(ASSIGN)
	case '!':
		if s.peek(0) == '=' {
			s.pos++
			return lx(NEQ)
		}
	case '<':
		if s.peek(0) == '=' {
			s.pos++
			return lx(LE)
		}
		return lx(LT)
	case '>':
		if s.peek(0) == '=' {
			s.pos++
			return lx(GE)
		}
		return lx(GT)
	case '+':
		return lx(PLUS)
	case '-':
		return lx(MINUS)
	case '*':
		return lx(STAR)
	case '/':
		return lx(SLASH)
	case '%':
		return lx(PERCENT)
	case ',':
		return lx(COMMA)
	case ':':
		return lx(COLON)
	case ';':
		return lx(SEMI)
	case '(':
		return lx(LPAREN)
	case ')':
		return lx(RPAREN)
	case '{':
		return lx(LBRACE)
	case '}':
		return lx(RBRACE)
	case '[':
		return lx(LBRACK)
	case ']':
		return lx(RBRACK)
	}
	return Lexeme{}, s.errorf("unexpected character %q", c)
}
