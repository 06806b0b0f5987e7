package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/gookit/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/marrow-lang/marrow/vm"
)

var plainFlag bool

var disasmCmd = &cobra.Command{
	Use:   "disasm FILE|-",
	Short: "Print the bytecode listing of a program or image",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		prog, err := loadProgram(args[0])
		if err != nil {
			log.Fatal().Err(err).Msg("Couldn't load program")
		}
		if plainFlag {
			prog.DebugPrint(cmd.OutOrStdout())
			return
		}
		printListing(cmd.OutOrStdout(), prog)
	},
}

func init() {
	disasmCmd.Flags().BoolVar(&plainFlag, "plain", false, "Print the parseable listing without color")
}

// printListing writes a colored listing with function headers and jump
// markers.
func printListing(w io.Writer, prog *vm.Program) {
	entries := make(map[int][]string)
	for name, pc := range prog.Functions {
		entries[pc] = append(entries[pc], name)
	}
	targets := make(map[int]bool)
	for _, op := range prog.Code {
		if op.Code.IsJump() {
			targets[op.Arg] = true
		}
	}
	for i, op := range prog.Code {
		names := entries[i]
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintln(w, color.Yellow.Sprintf("%s:", name))
		}
		marker := "  "
		if targets[i] {
			marker = color.Magenta.Sprint("> ")
		}
		fmt.Fprintf(w, "%s%s  %s\n", marker, color.Gray.Sprintf("%04d", i), formatOp(op))
	}
}

func formatOp(op vm.Op) string {
	name := color.Cyan.Sprint(op.Code.String())
	switch op.Code.Operand() {
	case vm.AddressOperand, vm.CountOperand:
		return fmt.Sprintf("%s %d", name, op.Arg)
	case vm.ValueOperand, vm.NameOperand:
		return fmt.Sprintf("%s %s", name, color.Green.Sprint(vm.Format(op.Val)))
	}
	return name
}
