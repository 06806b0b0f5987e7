package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/marrow-lang/marrow/syntax"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens FILE",
	Short: "Print the lexemes of a source file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path, err := sourcePath(args[0])
		if err != nil {
			log.Fatal().Err(err).Msg("Couldn't load project")
		}
		src, err := os.ReadFile(path)
		if err != nil {
			log.Fatal().Err(err).Msg("Couldn't read source")
		}
		lexemes, err := syntax.Scan(string(src))
		if err != nil {
			log.Fatal().Err(err).Msg("Couldn't scan")
		}
		for _, l := range lexemes {
			fmt.Fprintln(cmd.OutOrStdout(), l)
		}
	},
}
