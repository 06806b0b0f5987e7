package syntax

import "fmt"

type Token int

const (
	ILLEGAL Token = iota
	EOF

	NULL
	TRUE
	FALSE
	NUMBER
	STRING
	IDENT

	// Keywords
	FUNCTION
	RETURN
	VAR
	FOR
	BREAK
	CONTINUE
	IF
	ELIF
	ELSE
	PRINT
	PRINTLINE
	AND
	OR

	// Operators
	ASSIGN // =
	PLUS   // +
	MINUS  // -
	STAR   // *
	SLASH  // /
	PERCENT
	EQL // ==
	NEQ // !=
	LT  // <
	GT  // >
	LE  // <=
	GE  // >=

	COMMA
	COLON
	SEMI
	LPAREN
	RPAREN
	LBRACE
	RBRACE
	LBRACK
	RBRACK

	maxToken
)

var tokenNames = [...]string{
	ILLEGAL:   "illegal token",
	EOF:       "end of file",
	NULL:      "null",
	TRUE:      "true",
	FALSE:     "false",
	NUMBER:    "number",
	STRING:    "string",
	IDENT:     "identifier",
	FUNCTION:  "function",
	RETURN:    "return",
	VAR:       "var",
	FOR:       "for",
	BREAK:     "break",
	CONTINUE:  "continue",
	IF:        "if",
	ELIF:      "elif",
	ELSE:      "else",
	PRINT:     "print",
	PRINTLINE: "printLine",
	AND:       "and",
	OR:        "or",
	ASSIGN:    "=",
	PLUS:      "+",
	MINUS:     "-",
	STAR:      "*",
	SLASH:     "/",
	PERCENT:   "%",
	EQL:       "==",
	NEQ:       "!=",
	LT:        "<",
	GT:        ">",
	LE:        "<=",
	GE:        ">=",
	COMMA:     ",",
	COLON:     ":",
	SEMI:      ";",
	LPAREN:    "(",
	RPAREN:    ")",
	LBRACE:    "{",
	RBRACE:    "}",
	LBRACK:    "[",
	RBRACK:    "]",
}

func (t Token) String() string {
	if t >= 0 && t < maxToken {
		return tokenNames[t]
	}
	return fmt.Sprintf("token(%d)", int(t))
}

var keywords = map[string]Token{
	"null":      NULL,
	"true":      TRUE,
	"false":     FALSE,
	"function":  FUNCTION,
	"return":    RETURN,
	"var":       VAR,
	"for":       FOR,
	"break":     BREAK,
	"continue":  CONTINUE,
	"if":        IF,
	"elif":      ELIF,
	"else":      ELSE,
	"print":     PRINT,
	"printLine": PRINTLINE,
	"and":       AND,
	"or":        OR,
}

// Lexeme is a scanned token with its text and source line.
type Lexeme struct {
	Tok  Token
	Text string
	Line int
}

func (l Lexeme) String() string {
	return fmt.Sprintf("%-12s%s", l.Tok, l.Text)
}
