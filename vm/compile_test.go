package vm

import (
	"bytes"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marrow-lang/marrow/syntax"
)

func TestScopeSlots(t *testing.T) {
	var s scopeStack
	s.init()
	require.Equal(t, 0, s.declare("x"))
	require.Equal(t, 1, s.declare("y"))

	s.push()
	a := s.declare("a")
	s.pop()
	s.push()
	b := s.declare("b")
	s.push()
	c := s.declare("c")
	s.pop()
	s.pop()

	assert.Equal(t, 2, a)
	assert.Equal(t, a, b, "sibling blocks share a slot")
	assert.Equal(t, 3, c, "nested blocks get distinct slots")
	assert.Equal(t, 4, s.highWater())

	_, ok := s.lookup("a")
	assert.False(t, ok)
	slot, ok := s.lookup("y")
	assert.True(t, ok)
	assert.Equal(t, 1, slot)
}

func TestScopeShadowing(t *testing.T) {
	var s scopeStack
	s.init()
	s.declare("x")
	s.push()
	inner := s.declare("x")
	slot, _ := s.lookup("x")
	assert.Equal(t, inner, slot)
	s.pop()
	slot, _ = s.lookup("x")
	assert.Equal(t, 0, slot)
}

func TestPrologueAndFrames(t *testing.T) {
	p, err := CompileSource("t", `
function sum(x, y) { return x + y; }
function main() { return sum(10, 20); }`)
	require.NoError(t, err)

	assert.Equal(t, Op{Code: GETGLOBAL, Val: StrValue("main")}, p.Code[0])
	assert.Equal(t, Op{Code: CALL, Arg: 0}, p.Code[1])
	assert.Equal(t, Op{Code: EXIT}, p.Code[2])

	sum, ok := p.Resolve("sum")
	require.True(t, ok)
	assert.Equal(t, 3, sum)
	assert.Equal(t, 2, p.FrameSize(sum))
	assert.Equal(t, Op{Code: GETLOCAL, Arg: 0}, p.Code[sum+1])
	assert.Equal(t, Op{Code: GETLOCAL, Arg: 1}, p.Code[sum+2])

	main, ok := p.Resolve("main")
	require.True(t, ok)
	assert.Equal(t, 0, p.FrameSize(main))
	// Ends in an explicit return, no implicit one.
	assert.Equal(t, RETURN, p.Code[len(p.Code)-1].Code)
	assert.Equal(t, CALL, p.Code[len(p.Code)-2].Code)
}

func TestImplicitReturn(t *testing.T) {
	p, err := CompileSource("t", "function main() { var x = 1; }")
	require.NoError(t, err)
	n := len(p.Code)
	assert.Equal(t, Op{Code: PUSH, Val: Null}, p.Code[n-2])
	assert.Equal(t, Op{Code: RETURN}, p.Code[n-1])
	assert.Equal(t, 1, p.FrameSize(p.Functions["main"]))
}

func TestGlobalFallback(t *testing.T) {
	p, err := CompileSource("t", "function main() { g = 1; var l = g; }")
	require.NoError(t, err)
	var codes []Opcode
	for _, op := range p.Code[3:] {
		codes = append(codes, op.Code)
	}
	assert.Equal(t, []Opcode{
		ALLOCA,
		PUSH, SETGLOBAL, POP,
		PUSH, SETLOCAL, POP,
		GETGLOBAL, SETLOCAL, POP,
		PUSH, RETURN,
	}, codes)
}

func TestLoweringPatchesEveryJump(t *testing.T) {
	p, err := CompileSource("t", `
function main() {
  for i = 0, i < 5, i = i + 1 {
    if i == 1 { continue; } elif i == 3 { break; } else { print i; }
    var t = true or false and i;
  }
  break;
}`)
	require.NoError(t, err)
	for i, op := range p.Code {
		if op.Code.IsJump() {
			assert.GreaterOrEqual(t, op.Arg, 0, "jump at %d", i)
			assert.Less(t, op.Arg, len(p.Code), "jump at %d", i)
		}
	}
	// The loop var and t; if-branch scopes add nothing.
	assert.Equal(t, 2, p.FrameSize(p.Functions["main"]))
}

func TestForLowering(t *testing.T) {
	p, err := CompileSource("t", "function main() { for i = 0, i < 2, i = i + 1 { break; } }")
	require.NoError(t, err)
	base := p.Functions["main"]
	code := p.Code[base:]
	// ALLOCA, PUSH null, SETLOCAL, POP, PUSH 0, SETLOCAL, POP, top: GETLOCAL,
	// PUSH 2, LT, JFALSE end, JMP end (break), cont: GETLOCAL, PUSH 1, ADD,
	// SETLOCAL, POP, JMP top, end:
	top := base + 7
	end := base + 18
	assert.Equal(t, Op{Code: PUSH, Val: Null}, code[1])
	assert.Equal(t, JFALSE, code[10].Code)
	assert.Equal(t, end, code[10].Arg)
	assert.Equal(t, JMP, code[11].Code)
	assert.Equal(t, end, code[11].Arg)
	assert.Equal(t, Op{Code: JMP, Arg: top}, code[17])
	assert.Equal(t, PUSH, code[18].Code)
}

func TestValidateRejectsUnpatched(t *testing.T) {
	p := &Program{
		Code:      []Op{{Code: JMP, Arg: Unpatched}},
		Functions: map[string]int{},
	}
	require.ErrorIs(t, p.Validate(), ErrUnpatchedJump)
	p.Code[0].Arg = 7
	require.ErrorIs(t, p.Validate(), ErrUnpatchedJump)
}

func TestValidateRejectsBadOperands(t *testing.T) {
	cases := []struct {
		name string
		op   Op
	}{
		{"numeric global name", Op{Code: GETGLOBAL, Val: NumberValue(1)}},
		{"missing global name", Op{Code: SETGLOBAL}},
		{"negative call count", Op{Code: CALL, Arg: -1}},
		{"negative list count", Op{Code: BUILD_LIST, Arg: -2}},
		{"push without literal", Op{Code: PUSH}},
		{"push of a list", Op{Code: PUSH, Val: NewArray()}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &Program{Code: []Op{tc.op}, Functions: map[string]int{}}
			require.ErrorIs(t, p.Validate(), ErrBadOperand)
		})
	}
}

func TestDecodeRejectsBadOperands(t *testing.T) {
	p := &Program{
		Code: []Op{
			{Code: ALLOCA, Arg: 0},
			{Code: GETGLOBAL, Val: NumberValue(1)},
			{Code: RETURN},
		},
		Functions: map[string]int{"main": 0},
	}
	var buf bytes.Buffer
	require.NoError(t, EncodeImage(&buf, p))
	_, err := DecodeImage(&buf)
	require.ErrorIs(t, err, ErrBadImage)
	assert.ErrorIs(t, err, ErrBadOperand)

	p.Code[1] = Op{Code: CALL, Arg: -1}
	buf.Reset()
	require.NoError(t, EncodeImage(&buf, p))
	_, err = DecodeImage(&buf)
	require.ErrorIs(t, err, ErrBadImage)
}

func TestParseListingRejectsBadOperands(t *testing.T) {
	_, err := ParseListing(".func main 0\n0000  ALLOCA 0\n0001  CALL -1\n0002  RETURN\n")
	require.ErrorIs(t, err, ErrBadOperand)
	_, err = ParseListing(".func main 0\n0000  ALLOCA 0\n0001  GETGLOBAL 1\n0002  RETURN\n")
	require.ErrorIs(t, err, ErrBadOperand)
}

func TestListingRoundTrip(t *testing.T) {
	p, err := CompileSource("t", `
function f(a) { return a * 2.5; }
function main() {
  var m = {'k': "q\t"};
  printLine f(-3), null, true, m['k'];
}`)
	require.NoError(t, err)
	text := p.Listing()
	back, err := ParseListing(text)
	require.NoError(t, err)
	assert.Equal(t, p.Code, back.Code)
	assert.Equal(t, p.Functions, back.Functions)
	assert.Equal(t, text, back.Listing())
}

func TestLoadFile(t *testing.T) {
	p, err := LoadFile("in.mar", strings.NewReader("function main() { printLine 1; }"))
	require.NoError(t, err)
	var buf bytes.Buffer
	p.DebugPrint(&buf)
	assert.Equal(t, p.Listing(), buf.String())
	assert.Contains(t, buf.String(), ".func main")

	_, err = LoadFile("bad.mar", strings.NewReader("function main( {"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.mar")
}

func TestImageRoundTrip(t *testing.T) {
	p, err := CompileSource("t", "function main() { print 'x', 1.5, null, false; }")
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, EncodeImage(&buf, p))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("MBC1")))
	back, err := DecodeImage(&buf)
	require.NoError(t, err)
	assert.Equal(t, p.Code, back.Code)

	_, err = DecodeImage(strings.NewReader("nope"))
	assert.ErrorIs(t, err, ErrBadImage)
}

func TestCompileTestdata(t *testing.T) {
	filepath.WalkDir("../testdata", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".mar") {
			return nil
		}
		t.Run(filepath.Base(path), func(t *testing.T) {
			f, err := syntax.ParsePath(path)
			require.NoError(t, err)
			p, err := Compile(f)
			require.NoError(t, err)
			require.NoError(t, p.Validate())
			t.Log("\n" + p.Listing())
		})
		return nil
	})
}
