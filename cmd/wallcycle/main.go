package main

import (
	"os"

	"github.com/grovetools/wallcycle/cli"
	"github.com/grovetools/wallcycle/cmd"
	"github.com/grovetools/wallcycle/tui"
)

func main() {
	tui.InitializeTUI()

	rootCmd := cmd.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
		_ = cli.NewErrorHandler(verbose).Handle(err)
		os.Exit(1)
	}
}
