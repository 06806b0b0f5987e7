package syntax

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanTokens(t *testing.T) {
	toks, err := Scan("var x = 'hi' <= 3.5; // trailing\nprintLine x;")
	require.NoError(t, err)
	var kinds []Token
	for _, lx := range toks {
		kinds = append(kinds, lx.Tok)
	}
	assert.Equal(t, []Token{VAR, IDENT, ASSIGN, STRING, LE, NUMBER, SEMI, PRINTLINE, IDENT, SEMI, EOF}, kinds)
	assert.Equal(t, "hi", toks[3].Text)
	assert.Equal(t, 2, toks[7].Line)
}

func TestScanErrors(t *testing.T) {
	_, err := Scan("var x = 'open")
	require.ErrorIs(t, err, ErrSyntax)
	_, err = Scan("x # y")
	require.ErrorIs(t, err, ErrSyntax)
}

func TestParsePrecedence(t *testing.T) {
	prog, err := Parse("t", "function main() { x = 1 + 2 * -3 < 4 or false and true; }")
	require.NoError(t, err)
	require.Len(t, prog.Functions, 1)
	es := prog.Functions[0].Body[0].(*ExprStmt)
	set := es.X.(*SetVariable)
	assert.Equal(t, "x", set.Name)
	or := set.Value.(*Or)
	rel := or.X.(*Relational)
	assert.Equal(t, LT, rel.Op)
	add := rel.X.(*Arithmetic)
	assert.Equal(t, PLUS, add.Op)
	mul := add.Y.(*Arithmetic)
	assert.Equal(t, STAR, mul.Op)
	neg := mul.Y.(*Unary)
	assert.Equal(t, MINUS, neg.Op)
	_, ok := or.Y.(*And)
	assert.True(t, ok)
}

func TestParseStatements(t *testing.T) {
	src := `
function add(a, b) { return a + b; }
function main() {
  var xs = [1, 2, 3];
  var m = {'k': 1, 'v': 'two'};
  xs[0] = add(xs[1], m['k']);
  for i = 0, i < 3, i = i + 1 {
    if i == 1 { continue; } elif i == 2 { break; } else { print i; }
  }
  return;
}`
	prog, err := Parse("t", src)
	require.NoError(t, err)
	require.Len(t, prog.Functions, 2)
	assert.Equal(t, []string{"a", "b"}, prog.Functions[0].Params)

	body := prog.Functions[1].Body
	require.Len(t, body, 5)
	m := body[1].(*Variable).Value.(*MapLiteral)
	assert.Equal(t, "v", m.Entries[1].Key)
	set := body[2].(*ExprStmt).X.(*SetElement)
	_, ok := set.Value.(*Call)
	assert.True(t, ok)
	loop := body[3].(*For)
	assert.Equal(t, "i", loop.Var.Name)
	ifs := loop.Body[0].(*If)
	assert.Len(t, ifs.Conds, 2)
	assert.NotNil(t, ifs.Else)
	assert.Nil(t, body[4].(*Return).Result)
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{
		"function main() { var x; }",
		"function main() { 1 = 2; }",
		"function f() {} function f() {}",
		"function f(a, a) {}",
		"function main() { print 1 }",
		"function main() { var m = {k: 1}; }",
	} {
		_, err := Parse("t", src)
		assert.ErrorIs(t, err, ErrSyntax, src)
	}
}

func TestDump(t *testing.T) {
	prog, err := Parse("t", "function main() { printLine 'a', 1; }")
	require.NoError(t, err)
	var buf bytes.Buffer
	Dump(&buf, prog)
	assert.Equal(t, "FUNCTION main()\n  PRINT_LINE\n    \"a\"\n    1\n", buf.String())
}
