package reportstore

import (
	"testing"
	"time"

	"github.com/commitly/commitly/internal/collab"
)

func TestAppendAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	runs := []collab.ReportRun{
		{RunID: "run-1", Status: "succeeded", StartedAt: base, EndedAt: base.Add(time.Minute)},
		{RunID: "run-2", Status: "failed", StartedAt: base.Add(48 * time.Hour), EndedAt: base.Add(49 * time.Hour)},
	}
	for _, r := range runs {
		if err := Append(dir, r); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	t.Run("loads all runs within a wide range", func(t *testing.T) {
		got, err := Load(dir, base.Add(-time.Hour), base.Add(72*time.Hour))
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 runs, got %d", len(got))
		}
	})

	t.Run("filters out runs outside the range", func(t *testing.T) {
		got, err := Load(dir, base.Add(-time.Hour), base.Add(time.Hour))
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if len(got) != 1 || got[0].RunID != "run-1" {
			t.Fatalf("expected only run-1, got %v", got)
		}
	})
}

func TestLoadMissingFileReturnsNoRuns(t *testing.T) {
	dir := t.TempDir()
	got, err := Load(dir, time.Now().Add(-time.Hour), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for a missing history file, got %v", got)
	}
}
