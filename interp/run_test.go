package interp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marrow-lang/marrow/vm"
)

func run(t *testing.T, src string, opts Options) (string, vm.Value, error) {
	t.Helper()
	prog, err := vm.CompileSource(t.Name(), src)
	require.NoError(t, err)
	var out bytes.Buffer
	opts.Stdout = &out
	v, err := New(prog, opts).Run()
	return out.String(), v, err
}

func TestSum(t *testing.T) {
	_, v, err := run(t, `
function sum(x, y) { return x + y; }
function main() { return sum(10, 20); }`, Options{})
	require.NoError(t, err)
	assert.Equal(t, vm.NumberValue(30), v)
}

func TestPrograms(t *testing.T) {
	cases := []struct {
		name string
		body string
		out  string
	}{
		{"length", "var arr = [1, 2, 3]; print length(arr);", "3"},
		{"divide by zero", "print 10 / 0;", "0"},
		{"modulo by zero", "print 10 % 0;", "10"},
		{"cross type equality", `print 1 == "1";`, "false"},
		{"null equality", "print null == null;", "true"},
		{"null inequality", "print null != 1, 1 != 'a';", "truefalse"},
		{"concat", "print 'a' + 'b', 'a' + 1;", "ab0"},
		{"numbers", "printLine 1 / 3, 1 + 0, 2.5 * 2, -+-4;", "0.33333315-4\n"},
		{"or", "print 1 or 2, true or 2, false or 3;", "2true3"},
		{"and", "print false and 2, true and 2, 1 and 3;", "false23"},
		{"print array and map", "printLine [1, 'a', [null]], {'b': 2, 'a': true};", "[ 1, a, [ null, ], ]{ a:true, b:2, }\n"},
		{"loop", `
for i = 0, i < 5, i = i + 1 {
  if i == 2 { continue; } elif i == 4 { break; }
  printLine i;
}`, "0\n1\n3\n"},
		{"aliasing", "var a = [1]; var b = a; push(b, 2); b[0] = 9; print length(a), a[0];", "29"},
		{"map aliasing", "var m = {'k': 1}; var n = m; n['j'] = 2; erase(m, 'k'); print m;", "{ j:2, }"},
		{"index mismatches", "var a = [1]; print a['x'], a[5], a[-1], {'k': 1}[0], a[0.7];", "nullnullnullnull1"},
		{"set mismatch yields value", "var a = [1]; print a[7] = 3, a;", "3[ 1, ]"},
		{"pop", "var a = [1, 2]; print pop(a); print pop(a); print pop(a); print length(a);", "21null0"},
		{"arguments evaluate right to left", "var a = [1, 2]; print pop(a), pop(a);", "12"},
		{"sqrt", "print sqrt(16), sqrt('x');", "40"},
		{"builtin shape mismatch", "print length(3), push(1, 2), erase([], 'x');", "0nullnull"},
		{"not callable", "var x = 1; print x(2);", "null"},
		{"unknown global", "print nothing;", "null"},
		{"function refs", "print main, length;", "<function main><builtin length>"},
		{"globals", "g = 5; bump(); print g;", "6"},
		{"scopes", "var x = 1; if true { var x = 2; print x; } print x;", "21"},
		{"for scope", "for i = 0, i < 1, i = i + 1 { var y = i; } print i;", "null"},
		{"if chain", "var x = 5; if x < 3 { print 'a'; } elif x < 10 { print 'b'; } else { print 'c'; }", "b"},
		{"non-bool condition", "if 1 { print 'yes'; } else { print 'no'; }", "no"},
		{"break outside loop", "break; continue; print 'ok';", "ok"},
		{"recursion", "print fib(15);", "610"},
		{"missing args", "print two(1);", "1null"},
		{"extra args", "print two(1, 2, 3);", "12"},
		{"relational", "print 1 <= 1, 2 >= 3, 'a' < 'b';", "truefalsefalse"},
	}
	helpers := `
function bump() { g = g + 1; }
function fib(n) { if n < 2 { return n; } return fib(n - 1) + fib(n - 2); }
function two(a, b) { print a, b; return ''; }
`
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out, _, err := run(t, helpers+"function main() {"+c.body+"}", Options{})
			require.NoError(t, err)
			assert.Equal(t, c.out, out)
		})
	}
}

func TestNoEntryPoint(t *testing.T) {
	_, _, err := run(t, "function notmain() {}", Options{})
	require.ErrorIs(t, err, ErrNoEntryPoint)
}

func TestCallDepth(t *testing.T) {
	_, _, err := run(t, `
function down(n) { return down(n + 1); }
function main() { down(0); }`, Options{MaxCallDepth: 50})
	require.ErrorIs(t, err, ErrCallDepthExceeded)
}

func TestImplicitReturnIsNull(t *testing.T) {
	out, v, err := run(t, `
function f() { var x = 1; }
function main() { print f(); }`, Options{})
	require.NoError(t, err)
	assert.Equal(t, "null", out)
	assert.Equal(t, vm.Null, v)
}

func TestPersistentGlobals(t *testing.T) {
	globals := map[string]vm.Value{}
	_, _, err := run(t, "function main() { counter = 1; }", Options{Globals: globals})
	require.NoError(t, err)
	out, _, err := run(t, "function main() { print counter + 1; }", Options{Globals: globals})
	require.NoError(t, err)
	assert.Equal(t, "2", out)
}

func TestCallFunction(t *testing.T) {
	prog, err := vm.CompileSource("t", `
function mul(a, b) { return a * b; }
function main() {}`)
	require.NoError(t, err)
	m := New(prog, Options{})
	v, err := m.CallFunction("mul", vm.NumberValue(6), vm.NumberValue(7))
	require.NoError(t, err)
	assert.Equal(t, vm.NumberValue(42), v)

	v, err = m.CallFunction("length", vm.NewArray(vm.Null, vm.Null))
	require.NoError(t, err)
	assert.Equal(t, vm.NumberValue(2), v)

	_, err = m.CallFunction("missing")
	require.Error(t, err)
}

func TestStepByStep(t *testing.T) {
	prog, err := vm.CompileSource("t", "function main() { return 1; }")
	require.NoError(t, err)
	m := New(prog, Options{})
	require.NoError(t, m.Start())
	var results []StepResult
	for !m.Halted() {
		res, err := Step(m)
		require.NoError(t, err)
		results = append(results, res)
	}
	// GETGLOBAL CALL ALLOCA PUSH RETURN EXIT
	assert.Equal(t, []StepResult{ContinueStep, CallStep, ContinueStep, ContinueStep, ReturnStep, EndStep}, results)
	assert.Equal(t, []vm.Value{vm.NumberValue(1)}, m.Stack)
}

func TestStackUnderrun(t *testing.T) {
	prog := &vm.Program{
		Code:      []vm.Op{{Code: vm.POP}},
		Functions: map[string]int{},
	}
	m := New(prog, Options{})
	_, err := Step(m)
	require.ErrorIs(t, err, ErrStackUnderrun)
}

func TestMalformedOperandIsAnError(t *testing.T) {
	for _, op := range []vm.Op{
		{Code: vm.GETGLOBAL, Val: vm.NumberValue(1)},
		{Code: vm.BUILD_LIST, Arg: -1},
		{Code: vm.PRINT, Arg: -3},
	} {
		prog := &vm.Program{Code: []vm.Op{op}, Functions: map[string]int{}}
		m := New(prog, Options{})
		var err error
		require.NotPanics(t, func() { _, err = Step(m) }, op.String())
		require.ErrorIs(t, err, vm.ErrBadOperand, op.String())
	}
}
