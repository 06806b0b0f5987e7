package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/gookit/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/marrow-lang/marrow/interp"
	"github.com/marrow-lang/marrow/vm"
)

var traceLimit int

var traceCmd = &cobra.Command{
	Use:   "trace FILE|-",
	Short: "Single-step a program, printing the machine state before each instruction",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		prog, err := loadProgram(args[0])
		if err != nil {
			log.Fatal().Err(err).Msg("Couldn't load program")
		}
		if err := trace(cmd.OutOrStdout(), prog, traceLimit); err != nil {
			log.Fatal().Err(err).Msg("Error during execution")
		}
	},
}

func init() {
	traceCmd.Flags().IntVar(&traceLimit, "limit", 0, "Stop after this many steps (0 for no limit)")
}

func trace(w io.Writer, prog *vm.Program, limit int) error {
	m := interp.New(prog, interp.Options{Stdout: w})
	if err := m.Start(); err != nil {
		return err
	}
	for step := 1; limit <= 0 || step <= limit; step++ {
		prettyPrint(w, m)
		res, err := interp.Step(m)
		if err != nil {
			return err
		}
		if res == interp.EndStep {
			fmt.Fprintln(w, color.Green.Sprintf("Finished after %d steps", step))
			return nil
		}
	}
	fmt.Fprintln(w, color.Yellow.Sprintf("Stopped after %d steps", limit))
	return nil
}

func prettyPrint(w io.Writer, m *interp.Machine) {
	fn := "<prologue>"
	if len(m.Frames) > 0 {
		fn = m.Frames[len(m.Frames)-1].Function
	}
	inst, err := m.Program.GetInstruction(m.PC)
	next := "<end of code>"
	if err == nil {
		next = formatOp(inst)
	}
	fmt.Fprintf(w, "%s %s  %s\n", color.Gray.Sprintf("%04d", m.PC), color.Yellow.Sprint(fn), next)
	fmt.Fprintf(w, "      stack:  %s\n", formatValues(m.Stack))
	if len(m.Frames) > 0 {
		f := m.Frames[len(m.Frames)-1]
		fmt.Fprintf(w, "      locals: %s\n", formatValues(m.Locals[f.Base:f.Base+f.Size]))
	}
}

func formatValues(vals []vm.Value) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = vm.Format(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
