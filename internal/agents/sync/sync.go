// Package sync implements the Sync Agent: the pipeline's
// sole human approval gate. On "yes" it fast-forwards the user's working
// branch to the refactor branch's tip and pushes; on "no" it leaves
// everything for manual inspection and the pipeline still continues to
// Notify/Report.
package sync

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/commitly/commitly/internal/collab"
	"github.com/commitly/commitly/internal/gitgw"
	"github.com/commitly/commitly/internal/hub"
	"github.com/commitly/commitly/internal/logsink"
	"github.com/commitly/commitly/internal/perr"
	"github.com/commitly/commitly/internal/runctx"
)

const maxPushAttempts = 3

// FileChange is one entry in the human-readable change summary.
type FileChange struct {
	Path    string `json:"path"`
	Added   int    `json:"added"`
	Deleted int    `json:"deleted"`
}

// Output is the structured result cached at .commitly/cache/sync.json.
type Output struct {
	Summary          string       `json:"summary"`
	Approved         bool         `json:"approved"`
	Files            []FileChange `json:"files"`
	Pushed           bool         `json:"pushed"`
	DerivativeCleanup bool        `json:"derivative_cleanup"`
}

type Agent struct {
	HubMgr   *hub.Manager
	Git      *gitgw.Gateway
	Approval collab.ApprovalSource
	Sleep    func(time.Duration)
}

func New(hubMgr *hub.Manager, git *gitgw.Gateway, approval collab.ApprovalSource) *Agent {
	return &Agent{HubMgr: hubMgr, Git: git, Approval: approval, Sleep: time.Sleep}
}

func (a *Agent) Name() string { return "sync" }

func (a *Agent) Execute(ctx context.Context, rc *runctx.Context, log *logsink.Sink) (any, string, error) {
	h := &hub.Hub{Path: rc.HubPath, WorkspacePath: rc.WorkspacePath, Remote: rc.RemoteName}

	files, err := a.changeSummary(ctx, h, rc)
	if err != nil {
		return nil, "", perr.Wrap(perr.KindHubUnavailable, "compute change summary", err)
	}
	summary := renderSummary(rc, files)
	log.Printf("%s", summary)

	approved, err := a.Approval.Confirm(ctx, summary+"\nPush to "+rc.WorkingBranch+"? [y/N]")
	if err != nil {
		return nil, "", perr.Wrap(perr.KindInternalInvariant, "solicit approval", err)
	}

	if !approved {
		rc.Status = runctx.RunApprovedNoPush
		return Output{Summary: summary, Approved: false, Files: files}, "", nil
	}

	if err := a.Git.FetchFrom(ctx, rc.WorkspacePath, h.Path, rc.Branches.Refactor); err != nil {
		return nil, "", perr.Wrap(perr.KindPushFailed, "fetch refactor branch into workspace", err)
	}
	if err := a.Git.MergeFastForward(ctx, rc.WorkspacePath, "FETCH_HEAD"); err != nil {
		return nil, "", perr.Wrap(perr.KindPushFailed, "fast-forward working branch", err)
	}

	var pushErr error
	for attempt := 1; attempt <= maxPushAttempts; attempt++ {
		pushErr = a.Git.Push(ctx, rc.WorkspacePath, rc.RemoteName, rc.WorkingBranch)
		if pushErr == nil {
			break
		}
		log.Printf("push attempt %d/%d failed: %v", attempt, maxPushAttempts, pushErr)
		if attempt < maxPushAttempts {
			a.sleep(backoff(attempt))
		}
	}
	if pushErr != nil {
		manualCmd := fmt.Sprintf("git -C %s push %s %s", rc.WorkspacePath, rc.RemoteName, rc.WorkingBranch)
		return nil, "", perr.Wrap(perr.KindPushFailed,
			fmt.Sprintf("push failed after %d attempts; push manually with: %s", maxPushAttempts, manualCmd), pushErr)
	}

	derivatives := rc.AllDerivativeBranches()
	if err := a.HubMgr.Cleanup(ctx, h, derivatives); err != nil {
		return nil, "", perr.Wrap(perr.KindHubUnavailable, "cleanup derivative branches", err)
	}

	return Output{Summary: summary, Approved: true, Files: files, Pushed: true, DerivativeCleanup: true}, "", nil
}

func (a *Agent) sleep(d time.Duration) {
	if a.Sleep != nil {
		a.Sleep(d)
		return
	}
	time.Sleep(d)
}

func backoff(attempt int) time.Duration {
	return time.Duration(attempt) * 500 * time.Millisecond
}

func (a *Agent) changeSummary(ctx context.Context, h *hub.Hub, rc *runctx.Context) ([]FileChange, error) {
	lines, err := a.Git.DiffNumstat(ctx, h.Path, rc.RemoteName+"/"+rc.WorkingBranch, rc.Branches.Refactor)
	if err != nil {
		return nil, err
	}
	var out []FileChange
	for _, line := range lines {
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 {
			continue
		}
		added, _ := strconv.Atoi(parts[0])
		deleted, _ := strconv.Atoi(parts[1])
		out = append(out, FileChange{Path: parts[2], Added: added, Deleted: deleted})
	}
	return out, nil
}

func renderSummary(rc *runctx.Context, files []FileChange) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Run %s summary:\n", rc.RunID)
	fmt.Fprintf(&sb, "Files changed (%d):\n", len(files))
	for _, f := range files {
		fmt.Fprintf(&sb, "  %s (+%d/-%d)\n", f.Path, f.Added, f.Deleted)
	}
	if testOutcome, ok := rc.Outcomes["test"]; ok {
		fmt.Fprintf(&sb, "Test outcome: %s\n", testOutcome.Status)
	}
	if refactorOutcome, ok := rc.Outcomes["refactor"]; ok {
		fmt.Fprintf(&sb, "Refactor outcome: %s\n", refactorOutcome.Status)
	}
	if len(rc.EmbeddedQuerySites) > 0 {
		fmt.Fprintf(&sb, "Embedded query sites optimized: %d\n", len(rc.EmbeddedQuerySites))
	}
	return sb.String()
}
