package sqlopt

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/commitly/commitly/internal/collab"
	"github.com/commitly/commitly/internal/perr"
	"github.com/commitly/commitly/internal/runctx"
)

// candidateCount is the number of alternative queries requested from the
// language model per embedded query site.
const candidateCount = 3

// SiteReport is the per-site optimizer outcome persisted to the Test
// agent's cache.
type SiteReport struct {
	FilePath        string   `json:"file_path"`
	Symbol          string   `json:"symbol"`
	OriginalText    string   `json:"original_text"`
	ChosenText      string   `json:"chosen_text"`
	OriginalCost    float64  `json:"original_cost"`
	ChosenCost      float64  `json:"chosen_cost"`
	OriginalTime    float64  `json:"original_time"`
	ChosenTime      float64  `json:"chosen_time"`
	ImprovementRate float64  `json:"improvement_rate"`
	Candidates      []string `json:"candidates"`
	NoImprovement   bool     `json:"no_improvement,omitempty"`
	Skipped         bool     `json:"skipped,omitempty"`
	SkipReason      string   `json:"skip_reason,omitempty"`
}

// Optimizer runs the SQL Optimization Subloop over a run's embedded query
// sites. A nil DB or LLM degrades every site to a skip rather than failing
// the pipeline.
type Optimizer struct {
	DB      *pgxpool.Pool
	LLM     collab.LLMHandle
	Dialect string
	// RunTests re-executes the project test command after a site's
	// replacement lands on disk; a non-nil error here means "tests failed",
	// which aborts the pipeline.
	RunTests func(ctx context.Context) error
}

// Run processes sites in their given (stable, discovery) order, returning
// one SiteReport per site. It returns a non-nil error only when a
// post-replacement test run fails and cannot be absorbed as a per-site
// skip — that error is terminal and must reach the Rollback Engine.
func (o *Optimizer) Run(ctx context.Context, sites []runctx.EmbeddedQuerySite) ([]SiteReport, error) {
	reports := make([]SiteReport, 0, len(sites))
	buffers := make(map[string]*fileBuffer)
	deltas := make(map[string]int)

	for _, site := range sites {
		report, aborted, err := o.runSite(ctx, site, buffers, deltas)
		reports = append(reports, report)
		if aborted {
			return reports, err
		}
	}
	return reports, nil
}

func (o *Optimizer) runSite(ctx context.Context, site runctx.EmbeddedQuerySite, buffers map[string]*fileBuffer, deltas map[string]int) (SiteReport, bool, error) {
	report := SiteReport{
		FilePath:     site.FilePath,
		Symbol:       site.Symbol,
		OriginalText: site.OriginalText,
	}

	if o.DB == nil {
		report.Skipped = true
		report.SkipReason = "database unavailable"
		return report, false, nil
	}

	tables := site.ReferencedTables
	if len(tables) == 0 {
		tables = tablesIn(site.OriginalText)
	}
	schema, err := harvestSchema(ctx, o.DB, tables)
	if err != nil {
		report.Skipped = true
		report.SkipReason = "schema harvest failed: " + err.Error()
		return report, false, nil
	}

	if o.LLM == nil {
		report.Skipped = true
		report.SkipReason = "language-model handle unavailable"
		return report, false, nil
	}
	candidates, err := o.LLM.SuggestQueries(ctx, schema, site.OriginalText, site.Dialect, candidateCount)
	if err != nil || len(candidates) == 0 {
		report.Skipped = true
		report.SkipReason = "no candidates generated"
		return report, false, nil
	}
	report.Candidates = candidates

	baseline, err := explain(ctx, o.DB, site.OriginalText)
	if err != nil {
		report.Skipped = true
		report.SkipReason = "baseline measurement failed: " + err.Error()
		return report, false, nil
	}
	report.OriginalCost = baseline.TotalCost
	report.OriginalTime = baseline.ActualTime

	type evaluated struct {
		text string
		plan Plan
		idx  int
	}
	var evals []evaluated
	for i, cand := range candidates {
		plan, err := explain(ctx, o.DB, cand)
		if err != nil {
			continue // discard: fails to parse or plan
		}
		evals = append(evals, evaluated{text: cand, plan: plan, idx: i})
	}

	chosenText := site.OriginalText
	chosenCost := baseline.TotalCost
	chosenTime := baseline.ActualTime
	if len(evals) > 0 {
		sort.SliceStable(evals, func(i, j int) bool {
			if evals[i].plan.TotalCost != evals[j].plan.TotalCost {
				return evals[i].plan.TotalCost < evals[j].plan.TotalCost
			}
			if evals[i].plan.ActualTime != evals[j].plan.ActualTime {
				return evals[i].plan.ActualTime < evals[j].plan.ActualTime
			}
			return evals[i].idx < evals[j].idx
		})
		best := evals[0]
		if best.plan.TotalCost < baseline.TotalCost {
			chosenText = best.text
			chosenCost = best.plan.TotalCost
			chosenTime = best.plan.ActualTime
		} else {
			report.NoImprovement = true
		}
	} else {
		report.NoImprovement = true
	}

	report.ChosenText = chosenText
	report.ChosenCost = chosenCost
	report.ChosenTime = chosenTime
	denom := baseline.TotalCost
	if denom < 1 {
		denom = 1
	}
	report.ImprovementRate = (baseline.TotalCost - chosenCost) / denom * 100

	if chosenText == site.OriginalText {
		return report, false, nil
	}

	fb, ok := buffers[site.FilePath]
	if !ok {
		loaded, err := loadFileBuffer(site.FilePath)
		if err != nil {
			report.Skipped = true
			report.SkipReason = "could not load file for replacement: " + err.Error()
			return report, false, nil
		}
		fb = loaded
		buffers[site.FilePath] = fb
	}

	delta := deltas[site.FilePath]
	start := site.LineStart + delta
	end := site.LineEnd + delta
	if err := fb.splice(start, end, chosenText); err != nil {
		report.Skipped = true
		report.SkipReason = "splice failed: " + err.Error()
		return report, false, nil
	}
	deltas[site.FilePath] = fb.lineDelta

	if o.RunTests == nil {
		return report, false, nil
	}
	if err := o.RunTests(ctx); err != nil {
		revertErr := fb.revertLastSplice()
		deltas[site.FilePath] = fb.lineDelta
		abortMsg := fmt.Sprintf("tests failed after replacing site in %s:%d-%d", site.FilePath, site.LineStart, site.LineEnd)
		if revertErr != nil {
			abortMsg += fmt.Sprintf(" (revert also failed: %v)", revertErr)
		}
		return report, true, perr.Wrap(perr.KindTestFailed, abortMsg, err)
	}
	return report, false, nil
}
