package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// rootCmd is the base command when commitly is called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "commitly",
	Short: "Post-commit engineering pipeline automation",
	Long: `commitly validates, tests, optimizes, and publishes a just-recorded
commit through an isolated hub workspace, with one human approval gate
before anything is pushed.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits with the pipeline's own exit
// code contract: 0 success, 1 pipeline failed, 2 declined at
// sync, 3 configuration error, 4 lock held.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "commitly:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to commitly config file (default .commitly/config.yaml if present, else commitly.yaml)")
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(statusCmd)
}
