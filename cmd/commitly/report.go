package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/commitly/commitly/internal/collab"
	"github.com/commitly/commitly/internal/reportstore"
)

var (
	reportFrom   string
	reportTo     string
	reportFormat string
)

const reportDateLayout = "2006-01-02"

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render a report over a date range from recorded pipeline runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		workspace, err := workspaceRoot()
		if err != nil {
			return err
		}
		cfg, err := loadConfig(workspace)
		if err != nil {
			return err
		}

		from, to, err := parseReportRange(reportFrom, reportTo)
		if err != nil {
			return err
		}
		format := reportFormat
		if format == "" {
			format = cfg.Report.Format
		}

		cacheDir := filepath.Join(workspace, commitlyDir, "cache")
		runs, err := reportstore.Load(cacheDir, from, to)
		if err != nil {
			return err
		}

		renderer := &collab.MarkdownRenderer{}
		data := collab.ReportData{ProjectName: filepath.Base(workspace), From: from, To: to, Runs: runs}
		if err := renderer.Render(context.Background(), format, os.Stdout, data); err != nil {
			return renderer.Render(context.Background(), "md", os.Stdout, data)
		}
		return nil
	},
}

func parseReportRange(from, to string) (time.Time, time.Time, error) {
	var fromTime, toTime time.Time
	var err error
	if from == "" {
		fromTime = time.Now().AddDate(0, 0, -30)
	} else if fromTime, err = time.Parse(reportDateLayout, from); err != nil {
		return fromTime, toTime, fmt.Errorf("invalid --from: %w", err)
	}
	if to == "" {
		toTime = time.Now()
	} else if toTime, err = time.Parse(reportDateLayout, to); err != nil {
		return fromTime, toTime, fmt.Errorf("invalid --to: %w", err)
	}
	return fromTime, toTime, nil
}

func init() {
	reportCmd.Flags().StringVar(&reportFrom, "from", "", "start date (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportTo, "to", "", "end date (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportFormat, "format", "", "md|pdf|html (pdf/html degrade to md)")
}
