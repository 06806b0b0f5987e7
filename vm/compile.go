package vm

import (
	"fmt"
	"io"

	"github.com/marrow-lang/marrow/syntax"
)

// loopContext collects the jumps a loop body leaves dangling until the
// loop's continue target and exit are known.
type loopContext struct {
	breaks    []int
	continues []int
}

type compileContext struct {
	prog  *Program
	scope scopeStack
	loops []*loopContext
}

func newCompileContext() *compileContext {
	return &compileContext{
		prog: &Program{
			Functions: make(map[string]int),
		},
	}
}

func (cc *compileContext) here() int {
	return len(cc.prog.Code)
}

func (cc *compileContext) emit(op Opcode) int {
	cc.prog.Code = append(cc.prog.Code, Op{Code: op})
	return cc.here() - 1
}

func (cc *compileContext) emitArg(op Opcode, arg int) int {
	cc.prog.Code = append(cc.prog.Code, Op{Code: op, Arg: arg})
	return cc.here() - 1
}

func (cc *compileContext) emitVal(op Opcode, val Value) int {
	cc.prog.Code = append(cc.prog.Code, Op{Code: op, Val: val})
	return cc.here() - 1
}

// patch points the operand at index to the next instruction to be emitted.
func (cc *compileContext) patch(index int) {
	cc.prog.Code[index].Arg = cc.here()
}

func CompilePath(path string) (*Program, error) {
	f, err := syntax.ParsePath(path)
	if err != nil {
		return nil, err
	}
	return Compile(f)
}

func CompileSource(name, src string) (*Program, error) {
	f, err := syntax.Parse(name, src)
	if err != nil {
		return nil, err
	}
	return Compile(f)
}

// LoadFile compiles source read from r, reporting errors under name.
func LoadFile(name string, r io.Reader) (*Program, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return CompileSource(name, string(data))
}

// Compile lowers a parsed file into a Program. The program opens with a
// call to main and halts when it returns.
func Compile(file *syntax.Program) (*Program, error) {
	cc := newCompileContext()
	cc.emitVal(GETGLOBAL, StrValue("main"))
	cc.emitArg(CALL, 0)
	cc.emit(EXIT)
	for _, fn := range file.Functions {
		if err := cc.function(fn); err != nil {
			return nil, err
		}
	}
	if err := cc.prog.Validate(); err != nil {
		return nil, err
	}
	return cc.prog, nil
}

func (cc *compileContext) function(fn *syntax.Function) error {
	if _, ok := cc.prog.Functions[fn.Name]; ok {
		return fmt.Errorf("function %s defined twice", fn.Name)
	}
	cc.prog.Functions[fn.Name] = cc.here()
	alloca := cc.emitArg(ALLOCA, Unpatched)
	cc.scope.init()
	cc.loops = nil
	for _, p := range fn.Params {
		cc.scope.declare(p)
	}
	if err := cc.block(fn.Body); err != nil {
		return fmt.Errorf("function %s: %w", fn.Name, err)
	}
	cc.prog.Code[alloca].Arg = cc.scope.highWater()
	if n := len(fn.Body); n == 0 || !isReturn(fn.Body[n-1]) {
		cc.emitVal(PUSH, Null)
		cc.emit(RETURN)
	}
	return nil
}

func isReturn(s syntax.Stmt) bool {
	_, ok := s.(*syntax.Return)
	return ok
}

func (cc *compileContext) block(stmts []syntax.Stmt) error {
	for _, s := range stmts {
		if err := cc.statement(s); err != nil {
			return err
		}
	}
	return nil
}

// scopedBlock compiles stmts inside a fresh local scope.
func (cc *compileContext) scopedBlock(stmts []syntax.Stmt) error {
	cc.scope.push()
	defer cc.scope.pop()
	return cc.block(stmts)
}

// getVariable emits a read of name, local if any open scope declares it.
func (cc *compileContext) getVariable(name string) {
	if slot, ok := cc.scope.lookup(name); ok {
		cc.emitArg(GETLOCAL, slot)
		return
	}
	cc.emitVal(GETGLOBAL, StrValue(name))
}

func (cc *compileContext) setVariable(name string) {
	if slot, ok := cc.scope.lookup(name); ok {
		cc.emitArg(SETLOCAL, slot)
		return
	}
	cc.emitVal(SETGLOBAL, StrValue(name))
}
