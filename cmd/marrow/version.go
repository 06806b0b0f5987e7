package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marrow-lang/marrow/vm"
)

const version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of marrow",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("marrow version %s (image format %d)\n", version, vm.ImageVersion)
	},
}
