package sqlopt

import (
	"context"
	"testing"

	"github.com/commitly/commitly/internal/runctx"
)

// A nil *pgxpool.Pool is how the Test agent wires up the optimizer when
// database.host is unset; Run must degrade every site to a skip rather
// than dereferencing a nil pool.
func TestOptimizerRunWithNilDatabaseSkipsEverySite(t *testing.T) {
	opt := &Optimizer{}
	sites := []runctx.EmbeddedQuerySite{
		{FilePath: "a.py", OriginalText: "SELECT * FROM orders", LineStart: 1, LineEnd: 1},
		{FilePath: "a.py", OriginalText: "SELECT * FROM customers", LineStart: 5, LineEnd: 5},
	}

	reports, err := opt.Run(context.Background(), sites)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	for i, r := range reports {
		if !r.Skipped {
			t.Errorf("report %d: expected Skipped=true, got false", i)
		}
		if r.SkipReason != "database unavailable" {
			t.Errorf("report %d: SkipReason = %q, want %q", i, r.SkipReason, "database unavailable")
		}
	}
}

func TestOptimizerRunWithNoSitesReturnsEmpty(t *testing.T) {
	opt := &Optimizer{}
	reports, err := opt.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reports) != 0 {
		t.Errorf("expected no reports for no sites, got %v", reports)
	}
}
