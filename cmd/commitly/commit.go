package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/commitly/commitly/internal/gitgw"
	"github.com/commitly/commitly/internal/pipeline"
	"github.com/commitly/commitly/internal/runctx"
)

var commitMessage string

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Record the commit and run the pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		if commitMessage == "" {
			fmt.Fprintln(os.Stderr, "commitly: -m <message> is required")
			os.Exit(pipeline.ExitConfigurationErr)
		}

		workspace, err := workspaceRoot()
		if err != nil {
			return err
		}
		cfg, err := loadConfig(workspace)
		if err != nil {
			fmt.Fprintln(os.Stderr, "commitly:", err)
			os.Exit(pipeline.ExitConfigurationErr)
		}
		if verr := cfg.Validate(); verr != nil {
			fmt.Fprintln(os.Stderr, "commitly: configuration error:", verr)
			os.Exit(pipeline.ExitConfigurationErr)
		}

		git := &gitgw.Gateway{Timeout: gitgw.DefaultTimeout}
		if err := git.Commit(context.Background(), workspace, commitMessage); err != nil {
			fmt.Fprintln(os.Stderr, "commitly: could not record commit:", err)
			os.Exit(pipeline.ExitPipelineFailed)
		}

		orch, err := buildOrchestrator(cfg, workspace)
		if err != nil {
			return err
		}

		projectName := filepath.Base(workspace)
		result, runErr := orch.Run(context.Background(), workspace, projectName)

		if result != nil && result.Context != nil {
			printRunSummary(result.Context, runErr)
		}
		if result != nil {
			os.Exit(result.ExitCode)
		}
		if runErr != nil {
			return runErr
		}
		return nil
	},
}

func init() {
	commitCmd.Flags().StringVarP(&commitMessage, "message", "m", "", "commit message")
}

func printRunSummary(rc *runctx.Context, err error) {
	fmt.Printf("run %s: %s\n", rc.RunID, rc.Status)
	if err != nil {
		fmt.Println("error:", err)
	}
	for _, name := range []string{"clone", "code", "test", "refactor", "sync", "notify", "report"} {
		outcome, ok := rc.Outcomes[name]
		if !ok {
			continue
		}
		fmt.Printf("  %-9s %-10s %s\n", name, outcome.Status, outcome.LogPath)
	}
}
