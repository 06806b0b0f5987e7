package test

import (
	"io"
	"testing"

	"github.com/marrow-lang/marrow/eval"
	"github.com/marrow-lang/marrow/interp"
	"github.com/marrow-lang/marrow/syntax"
	"github.com/marrow-lang/marrow/vm"
)

// runGlobals runs code on both backends and returns the VM's global table
// after checking the tree walker ended with the same globals.
func runGlobals(t *testing.T, code string) map[string]vm.Value {
	t.Helper()
	file, err := syntax.Parse("test.mar", code)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	prog, err := vm.Compile(file)
	if err != nil {
		t.Fatalf("Compilation failed: %v", err)
	}

	vmGlobals := make(map[string]vm.Value)
	_, err = interp.RunToEnd(prog, interp.Options{Stdout: io.Discard, Globals: vmGlobals})
	if err != nil {
		t.Fatalf("Execution failed: %v", err)
	}

	treeGlobals := make(map[string]vm.Value)
	_, err = eval.New(file, interp.Options{Stdout: io.Discard, Globals: treeGlobals}).Run()
	if err != nil {
		t.Fatalf("Tree execution failed: %v", err)
	}

	if len(vmGlobals) != len(treeGlobals) {
		t.Fatalf("Backends disagree on globals: vm %v, tree %v", vmGlobals, treeGlobals)
	}
	for name, v := range vmGlobals {
		if vm.Format(v) != vm.Format(treeGlobals[name]) {
			t.Fatalf("Backends disagree on %s: vm %s, tree %s", name, vm.Format(v), vm.Format(treeGlobals[name]))
		}
	}
	return vmGlobals
}

func expectGlobal(t *testing.T, globals map[string]vm.Value, name string, expected vm.Value) {
	t.Helper()
	got, ok := globals[name]
	if !ok {
		t.Fatalf("Variable '%s' not found", name)
	}
	if vm.Format(got) != vm.Format(expected) || got.Kind() != expected.Kind() {
		t.Errorf("Expected %s = %s, got %s", name, vm.Format(expected), vm.Format(got))
	}
}
