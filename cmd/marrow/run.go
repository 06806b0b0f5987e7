package main

import (
	"bufio"
	"errors"
	"os"

	"github.com/gookit/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/marrow-lang/marrow/interp"
	"github.com/marrow-lang/marrow/project"
	"github.com/marrow-lang/marrow/vm"
)

var (
	debugFlag    bool
	backendFlag  string
	maxDepthFlag int
	cacheDirFlag string
)

var runCmd = &cobra.Command{
	Use:   "run FILE",
	Short: "Run a program (.mar source, .mbc image or .toml/.yaml project)",
	Args:  cobra.ExactArgs(1),
	Run:   runCommand,
}

func init() {
	runCmd.Flags().BoolVar(&debugFlag, "debug", false, "Print the bytecode listing to stderr before running")
	runCmd.Flags().StringVar(&backendFlag, "backend", project.BackendVM, "Execution backend (vm, tree)")
	runCmd.Flags().IntVar(&maxDepthFlag, "max-call-depth", interp.DefaultMaxCallDepth, "Maximum call depth")
	runCmd.Flags().StringVar(&cacheDirFlag, "cache-dir", "", "Directory for the compiled program cache")
}

// loadProject builds the project for path and lets explicit flags win over
// the project file.
func loadProject(cmd *cobra.Command, path string) (*project.Project, error) {
	var p *project.Project
	if isProjectFile(path) {
		var err error
		p, err = project.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
	} else {
		p = project.ForFile(path)
	}
	if cmd.Flags().Changed("backend") {
		p.Program.Backend = backendFlag
	}
	if cmd.Flags().Changed("max-call-depth") {
		p.Limits.MaxCallDepth = maxDepthFlag
	}
	if cmd.Flags().Changed("cache-dir") {
		p.Cache.Dir = cacheDirFlag
	}
	return p, p.Validate()
}

func runCommand(cmd *cobra.Command, args []string) {
	filename := args[0]
	p, err := loadProject(cmd, filename)
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't load project")
	}

	var exec *project.Executor
	if isImageFile(filename) {
		prog, err := loadProgram(filename)
		if err != nil {
			log.Fatal().Err(err).Msg("Couldn't load program image")
		}
		p.Program.Backend = project.BackendVM
		exec = &project.Executor{Project: p, Program: prog}
	} else {
		exec, err = p.BuildExecutor(nil)
		if err != nil {
			log.Fatal().Err(err).Msg("Couldn't build executor")
		}
	}

	if debugFlag {
		if exec.Program == nil {
			exec.Program, err = vm.CompilePath(p.Program.File)
			if err != nil {
				log.Fatal().Err(err).Msg("Couldn't compile")
			}
		}
		printListing(os.Stderr, exec.Program)
		os.Stderr.WriteString(color.Cyan.Sprintf("Running %s with the %s backend...\n", p.Program.File, p.Program.Backend))
	}

	out := bufio.NewWriter(os.Stdout)
	_, err = exec.Run(out)
	out.Flush()
	if errors.Is(err, interp.ErrNoEntryPoint) {
		log.Fatal().Str("file", filename).Msg("Program has no main function")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Error during execution")
	}
}
