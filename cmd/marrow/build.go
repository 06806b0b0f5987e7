package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gookit/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/marrow-lang/marrow/vm"
)

var outputFlag string

var buildCmd = &cobra.Command{
	Use:   "build FILE",
	Short: "Compile a program to a bytecode image (.mbc)",
	Args:  cobra.ExactArgs(1),
	Run:   buildCommand,
}

func init() {
	buildCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output image path (defaults to FILE with a .mbc extension)")
}

func imagePath(src string) string {
	return strings.TrimSuffix(src, filepath.Ext(src)) + ".mbc"
}

func buildCommand(cmd *cobra.Command, args []string) {
	src, err := sourcePath(args[0])
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't load project")
	}
	prog, err := vm.CompilePath(src)
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't compile")
	}
	out := outputFlag
	if out == "" {
		out = imagePath(src)
	}
	f, err := os.Create(out)
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't create image")
	}
	if err := vm.EncodeImage(f, prog); err != nil {
		f.Close()
		log.Fatal().Err(err).Msg("Couldn't write image")
	}
	if err := f.Close(); err != nil {
		log.Fatal().Err(err).Msg("Couldn't write image")
	}
	log.Debug().Str("image", out).Int("instructions", len(prog.Code)).Msg("Build: wrote image")
	os.Stderr.WriteString(color.Green.Sprintf("Wrote %s (%d instructions)\n", out, len(prog.Code)))
}
