package main

import (
	"context"
	"os"

	"github.com/gookit/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/marrow-lang/marrow/cas"
	"github.com/marrow-lang/marrow/project"
	"github.com/marrow-lang/marrow/suite"
)

var (
	testWorkers   int
	testBackends  []string
	testUpdate    bool
	testKeepGoing bool
	testCacheDir  string
	testCacheSize int
	testQuiet     bool
)

var testCmd = &cobra.Command{
	Use:   "test [DIR]",
	Short: "Run every .mar file under DIR and compare it with its .out file",
	Args:  cobra.MaximumNArgs(1),
	Run:   testCommand,
}

func init() {
	testCmd.Flags().IntVarP(&testWorkers, "workers", "w", 0, "Number of parallel workers (0 for one per CPU)")
	testCmd.Flags().StringSliceVar(&testBackends, "backend", []string{project.BackendVM, project.BackendTree}, "Backends to run each case on")
	testCmd.Flags().BoolVar(&testUpdate, "update", false, "Rewrite .out files from the first backend's output")
	testCmd.Flags().BoolVarP(&testKeepGoing, "keep-going", "k", true, "Keep running after the first failure")
	testCmd.Flags().StringVar(&testCacheDir, "cache-dir", "", "Directory for the compiled program cache")
	testCmd.Flags().IntVar(&testCacheSize, "cache-size", 256, "Entries held in memory in front of the cache")
	testCmd.Flags().BoolVarP(&testQuiet, "quiet", "q", false, "Only print the summary")
}

func testCommand(cmd *cobra.Command, args []string) {
	dir := "testdata"
	if len(args) == 1 {
		dir = args[0]
	}
	cases, err := suite.Discover(dir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", dir).Msg("Couldn't discover cases")
	}
	if len(cases) == 0 {
		log.Fatal().Str("dir", dir).Msg("No .mar files found")
	}

	var store cas.CAS = cas.NewMemoryCAS()
	if testCacheDir != "" {
		store, err = cas.NewDirCAS(testCacheDir)
		if err != nil {
			log.Fatal().Err(err).Msg("Couldn't open cache")
		}
	}
	store = cas.NewLRUCache(store, testCacheSize)

	var reporter suite.Reporter = &suite.ColorReporter{Writer: os.Stderr}
	if testQuiet {
		reporter = suite.SilentReporter{}
	}
	runner := &suite.Runner{
		Workers:   testWorkers,
		Backends:  testBackends,
		Store:     store,
		Reporter:  reporter,
		KeepGoing: testKeepGoing || testUpdate,
	}
	os.Stderr.WriteString(color.Cyan.Sprintf("Running %d case(s) on %v...\n", len(cases), testBackends))
	summary, err := runner.Run(context.Background(), cases)
	if err != nil {
		log.Fatal().Err(err).Msg("Run aborted")
	}

	if testUpdate {
		written, err := summary.UpdateExpected()
		if err != nil {
			log.Fatal().Err(err).Msg("Couldn't update expected output")
		}
		for _, path := range written {
			os.Stderr.WriteString(color.Yellow.Sprintf("updated %s\n", path))
		}
	}

	suite.WriteSummary(cmd.OutOrStdout(), summary)
	if !summary.OK() && !testUpdate {
		os.Exit(1)
	}
}
