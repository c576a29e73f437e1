// Package report implements the Report Agent: it records
// this run into the durable run-history log and renders a markdown
// document for it, writing to .commitly/reports/<date>-<slug>.md. Other
// configured formats degrade to markdown.
package report

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/commitly/commitly/internal/agents/refactor"
	"github.com/commitly/commitly/internal/collab"
	"github.com/commitly/commitly/internal/config"
	"github.com/commitly/commitly/internal/logsink"
	"github.com/commitly/commitly/internal/reportstore"
	"github.com/commitly/commitly/internal/runctx"
)

// Output is the structured result cached at .commitly/cache/report.json.
type Output struct {
	ReportPath string `json:"report_path"`
}

type Agent struct {
	Renderer collab.ReportRenderer
	Config   *config.Config
	CacheDir string
	Now      func() time.Time
}

func New(renderer collab.ReportRenderer, cfg *config.Config, cacheDir string) *Agent {
	return &Agent{Renderer: renderer, Config: cfg, CacheDir: cacheDir, Now: time.Now}
}

func (a *Agent) Name() string { return "report" }

func (a *Agent) Execute(ctx context.Context, rc *runctx.Context, log *logsink.Sink) (any, string, error) {
	run := buildReportRun(rc)
	if err := reportstore.Append(a.CacheDir, run); err != nil {
		log.Printf("could not append run history: %v", err)
	}

	data := collab.ReportData{
		ProjectName: rc.ProjectName,
		From:        run.StartedAt,
		To:          run.EndedAt,
		Runs:        []collab.ReportRun{run},
	}

	var buf bytes.Buffer
	if err := a.Renderer.Render(ctx, a.Config.Report.Format, &buf, data); err != nil {
		log.Printf("render failed, falling back to markdown: %v", err)
		buf.Reset()
		if fallbackErr := a.Renderer.Render(ctx, "md", &buf, data); fallbackErr != nil {
			return nil, "", fallbackErr
		}
	}

	dir := a.Config.Report.Dir
	if dir == "" {
		dir = filepath.Join(a.CacheDir, "..", "reports")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", err
	}
	reportPath := filepath.Join(dir, fmt.Sprintf("%s-%s.md", run.StartedAt.UTC().Format("2006-01-02"), slug(rc.RunID)))
	if err := os.WriteFile(reportPath, buf.Bytes(), 0o644); err != nil {
		return nil, "", err
	}

	return Output{ReportPath: reportPath}, "", nil
}

func buildReportRun(rc *runctx.Context) collab.ReportRun {
	run := collab.ReportRun{
		RunID:        rc.RunID,
		Status:       string(rc.Status),
		StartedAt:    rc.StartedAt,
		EndedAt:      rc.EndedAt,
		ChangedFiles: rc.ChangedFiles,
	}
	if testOutcome, ok := rc.Outcomes["test"]; ok {
		run.TestPassed = testOutcome.Status == runctx.StatusSucceeded
	}
	if refactorOutcome, ok := rc.Outcomes["refactor"]; ok {
		switch out := refactorOutcome.Output.(type) {
		case refactor.Output:
			for _, f := range out.Files {
				if f.Applied {
					run.RefactorHighlights = append(run.RefactorHighlights, f.FilePath)
				}
			}
		case map[string]any:
			if files, ok := out["files"].([]any); ok {
				for _, f := range files {
					if m, ok := f.(map[string]any); ok && m["applied"] == true {
						run.RefactorHighlights = append(run.RefactorHighlights, fmt.Sprintf("%v", m["file_path"]))
					}
				}
			}
		}
	}
	for _, site := range rc.EmbeddedQuerySites {
		run.QueryHighlights = append(run.QueryHighlights, fmt.Sprintf("%s:%d", site.FilePath, site.LineStart))
	}
	return run
}

func slug(s string) string {
	return strings.ReplaceAll(s, " ", "-")
}
