package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/marrow-lang/marrow/project"
	"github.com/marrow-lang/marrow/syntax"
	"github.com/marrow-lang/marrow/vm"
)

func isProjectFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml", ".yaml", ".yml":
		return true
	}
	return false
}

func isImageFile(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".mbc"
}

// sourcePath returns the Marrow source a path refers to, following
// project files to the program they name.
func sourcePath(path string) (string, error) {
	if !isProjectFile(path) {
		return path, nil
	}
	p, err := project.LoadFromFile(path)
	if err != nil {
		return "", err
	}
	return p.Program.File, nil
}

// loadProgram compiles a source or project file, or decodes an image. A
// path of "-" reads source from stdin.
func loadProgram(path string) (*vm.Program, error) {
	return loadProgramFrom(path, os.Stdin)
}

func loadProgramFrom(path string, stdin io.Reader) (*vm.Program, error) {
	if path == "-" {
		return vm.LoadFile("<stdin>", stdin)
	}
	if isImageFile(path) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return vm.DecodeImage(f)
	}
	src, err := sourcePath(path)
	if err != nil {
		return nil, err
	}
	return vm.CompilePath(src)
}

func loadAST(path string) (*syntax.Program, error) {
	src, err := sourcePath(path)
	if err != nil {
		return nil, err
	}
	return syntax.ParsePath(src)
}
