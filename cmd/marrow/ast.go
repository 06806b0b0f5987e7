package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/marrow-lang/marrow/syntax"
)

var astCmd = &cobra.Command{
	Use:   "ast FILE",
	Short: "Print the syntax tree of a source file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		prog, err := loadAST(args[0])
		if err != nil {
			log.Fatal().Err(err).Msg("Couldn't parse")
		}
		syntax.Dump(cmd.OutOrStdout(), prog)
	},
}
