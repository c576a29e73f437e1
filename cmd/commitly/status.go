package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/commitly/commitly/internal/runctx"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the last pipeline run's summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		workspace, err := workspaceRoot()
		if err != nil {
			return err
		}
		store := runctx.NewStore(filepath.Join(workspace, commitlyDir, "cache"))
		rc, err := store.Load()
		if err != nil {
			fmt.Println("no recorded run yet")
			return nil
		}
		printRunSummary(rc, nil)
		return nil
	},
}
