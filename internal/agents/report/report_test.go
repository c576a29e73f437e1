package report

import (
	"testing"

	"github.com/commitly/commitly/internal/agents/refactor"
	"github.com/commitly/commitly/internal/runctx"
)

func TestSlug(t *testing.T) {
	if got := slug("run abc 123"); got != "run-abc-123" {
		t.Errorf("slug = %q, want run-abc-123", got)
	}
}

func TestBuildReportRunCollectsHighlights(t *testing.T) {
	rc := runctx.New("run-9", "demo", "/workspace/demo")
	rc.Outcomes["test"] = &runctx.AgentOutcome{Status: runctx.StatusSucceeded}
	rc.Outcomes["refactor"] = &runctx.AgentOutcome{
		Status: runctx.StatusSucceeded,
		Output: refactor.Output{Files: []refactor.FileOutcome{
			{FilePath: "a.py", Applied: true},
			{FilePath: "b.py", Applied: false, Reason: "language model unavailable"},
		}},
	}
	rc.EmbeddedQuerySites = []runctx.EmbeddedQuerySite{{FilePath: "db.py", LineStart: 12}}

	run := buildReportRun(rc)

	if !run.TestPassed {
		t.Error("expected TestPassed = true")
	}
	if len(run.RefactorHighlights) != 1 || run.RefactorHighlights[0] != "a.py" {
		t.Errorf("RefactorHighlights = %v, want [a.py]", run.RefactorHighlights)
	}
	if len(run.QueryHighlights) != 1 || run.QueryHighlights[0] != "db.py:12" {
		t.Errorf("QueryHighlights = %v, want [db.py:12]", run.QueryHighlights)
	}
}

func TestBuildReportRunHandlesMapShapedOutput(t *testing.T) {
	rc := runctx.New("run-10", "demo", "/workspace/demo")
	rc.Outcomes["refactor"] = &runctx.AgentOutcome{
		Status: runctx.StatusSucceeded,
		Output: map[string]any{
			"files": []any{
				map[string]any{"file_path": "c.py", "applied": true},
			},
		},
	}

	run := buildReportRun(rc)
	if len(run.RefactorHighlights) != 1 || run.RefactorHighlights[0] != "c.py" {
		t.Errorf("RefactorHighlights = %v, want [c.py]", run.RefactorHighlights)
	}
}
