package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplete(t *testing.T) {
	assert.True(t, complete("x = 1;"))
	assert.False(t, complete("function f() {"))
	assert.True(t, complete("function f() {\n return 1;\n}"))
	assert.True(t, complete(`printLine "{";`))
	assert.False(t, complete(`printLine "abc`))
	assert.True(t, complete("x = 1; // {"))
}

func TestSessionPersistsState(t *testing.T) {
	var out bytes.Buffer
	s := newSession(&out)

	require.NoError(t, s.eval("function double(n) {\n  return n * 2;\n}\n"))
	require.NoError(t, s.eval("var x = double(21);"))
	out.Reset()
	require.NoError(t, s.eval("printLine x;"))
	assert.Equal(t, "42\n", out.String())

	out.Reset()
	require.NoError(t, s.eval("x + 1;"))
	assert.Equal(t, "43\n", out.String())

	// redefinition replaces the earlier function
	require.NoError(t, s.eval("function double(n) { return n + n + 1; }"))
	out.Reset()
	require.NoError(t, s.eval("printLine double(1);"))
	assert.Equal(t, "3\n", out.String())
	assert.Len(t, s.funcs, 1)
}

func TestSessionErrors(t *testing.T) {
	var out bytes.Buffer
	s := newSession(&out)
	require.Error(t, s.eval("printLine (;"))
	require.Error(t, s.eval("function (x) {}"))
	assert.Nil(t, s.last)
}

func TestSessionCommands(t *testing.T) {
	var out bytes.Buffer
	s := newSession(&out)
	assert.False(t, s.command(":help"))
	assert.Contains(t, out.String(), ":listing")

	out.Reset()
	s.command(":listing")
	assert.Contains(t, out.String(), "nothing compiled")

	require.NoError(t, s.eval("function inc(a) { return a + 1; }"))
	out.Reset()
	s.command(":funcs")
	assert.Equal(t, "inc(a)\n", out.String())

	assert.True(t, s.command(":quit"))
}
