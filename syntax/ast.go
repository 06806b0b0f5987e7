// Package syntax turns Marrow source text into an AST.
package syntax

// Program is the root of a parsed file.
type Program struct {
	Name      string
	Functions []*Function
}

type Function struct {
	Name   string
	Params []string
	Body   []Stmt
	Line   int
}

type Stmt interface {
	stmt()
}

type Expr interface {
	expr()
}

type (
	If struct {
		Conds  []Expr
		Blocks [][]Stmt
		Else   []Stmt
	}

	For struct {
		Var  *Variable
		Cond Expr
		Step Expr
		Body []Stmt
	}

	Break    struct{}
	Continue struct{}

	Return struct {
		Result Expr // nil returns null
	}

	Variable struct {
		Name  string
		Value Expr
	}

	Print struct {
		Args     []Expr
		LineFeed bool
	}

	ExprStmt struct {
		X Expr
	}
)

func (*If) stmt()       {}
func (*For) stmt()      {}
func (*Break) stmt()    {}
func (*Continue) stmt() {}
func (*Return) stmt()   {}
func (*Variable) stmt() {}
func (*Print) stmt()    {}
func (*ExprStmt) stmt() {}

type (
	Or struct {
		X, Y Expr
	}

	And struct {
		X, Y Expr
	}

	// Relational covers == != < > <= >=.
	Relational struct {
		Op   Token
		X, Y Expr
	}

	// Arithmetic covers + - * / %.
	Arithmetic struct {
		Op   Token
		X, Y Expr
	}

	// Unary covers prefix + and -.
	Unary struct {
		Op Token
		X  Expr
	}

	Call struct {
		Fn   Expr
		Args []Expr
	}

	GetElement struct {
		X, Index Expr
	}

	SetElement struct {
		X, Index, Value Expr
	}

	GetVariable struct {
		Name string
	}

	SetVariable struct {
		Name  string
		Value Expr
	}

	NullLiteral    struct{}
	BooleanLiteral struct{ Value bool }
	NumberLiteral  struct{ Value float64 }
	StringLiteral  struct{ Value string }

	ArrayLiteral struct {
		Elems []Expr
	}

	MapEntry struct {
		Key   string
		Value Expr
	}

	MapLiteral struct {
		Entries []MapEntry
	}
)

func (*Or) expr()             {}
func (*And) expr()            {}
func (*Relational) expr()     {}
func (*Arithmetic) expr()     {}
func (*Unary) expr()          {}
func (*Call) expr()           {}
func (*GetElement) expr()     {}
func (*SetElement) expr()     {}
func (*GetVariable) expr()    {}
func (*SetVariable) expr()    {}
func (*NullLiteral) expr()    {}
func (*BooleanLiteral) expr() {}
func (*NumberLiteral) expr()  {}
func (*StringLiteral) expr()  {}
func (*ArrayLiteral) expr()   {}
func (*MapLiteral) expr()     {}
