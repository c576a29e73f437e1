package collab

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestMarkdownRendererRendersRunSummary(t *testing.T) {
	r := &MarkdownRenderer{}
	data := ReportData{
		ProjectName: "demo",
		From:        time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		To:          time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		Runs: []ReportRun{{
			RunID:              "run-1",
			Status:             "succeeded",
			StartedAt:          time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC),
			EndedAt:            time.Date(2026, 1, 15, 9, 5, 0, 0, time.UTC),
			TestPassed:         true,
			ChangedFiles:       []string{"main.py"},
			RefactorHighlights: []string{"main.py"},
			QueryHighlights:    []string{"db.py:12"},
		}},
	}

	var buf bytes.Buffer
	if err := r.Render(context.Background(), "md", &buf, data); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"demo", "run-1", "succeeded", "main.py", "db.py:12"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected rendered output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestMarkdownRendererAcceptsEmptyFormatAsMarkdown(t *testing.T) {
	r := &MarkdownRenderer{}
	var buf bytes.Buffer
	if err := r.Render(context.Background(), "", &buf, ReportData{}); err != nil {
		t.Fatalf("expected empty format to render as markdown, got: %v", err)
	}
}

func TestMarkdownRendererRejectsOtherFormats(t *testing.T) {
	r := &MarkdownRenderer{}
	var buf bytes.Buffer
	err := r.Render(context.Background(), "pdf", &buf, ReportData{})
	if err == nil {
		t.Fatal("expected an error for an unsupported format")
	}
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected errors.Is to match ErrUnsupportedFormat, got: %v", err)
	}
}
