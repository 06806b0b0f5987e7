package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marrow-lang/marrow/vm"
)

func TestTrace(t *testing.T) {
	prog, err := vm.CompileSource("t.mar", "function main() { printLine 1 + 2; }")
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, trace(&out, prog, 0))
	assert.Contains(t, out.String(), "3\n")
	assert.Contains(t, out.String(), "Finished after")
	assert.Contains(t, out.String(), "main")

	out.Reset()
	require.NoError(t, trace(&out, prog, 2))
	assert.Contains(t, out.String(), "Stopped after 2 steps")
}

func TestImagePath(t *testing.T) {
	assert.Equal(t, "dir/prog.mbc", imagePath("dir/prog.mar"))
	assert.True(t, isImageFile("a.MBC"))
	assert.True(t, isProjectFile("marrow.yml"))
	assert.False(t, isProjectFile("a.mar"))
}

func TestLoadProgramFromStdin(t *testing.T) {
	prog, err := loadProgramFrom("-", strings.NewReader("function main() { return 2; }"))
	require.NoError(t, err)
	_, ok := prog.Resolve("main")
	assert.True(t, ok)

	var out bytes.Buffer
	prog.DebugPrint(&out)
	back, err := vm.ParseListing(out.String())
	require.NoError(t, err)
	assert.Equal(t, prog.Code, back.Code)
}
