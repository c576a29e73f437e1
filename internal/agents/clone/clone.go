// Package clone implements the Clone Agent: it produces an
// isolated snapshot of the user's just-committed state, ready for
// validation by the rest of the pipeline.
package clone

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/commitly/commitly/internal/gitgw"
	"github.com/commitly/commitly/internal/hub"
	"github.com/commitly/commitly/internal/ids"
	"github.com/commitly/commitly/internal/logsink"
	"github.com/commitly/commitly/internal/perr"
	"github.com/commitly/commitly/internal/runctx"
)

// Output is the structured result cached at .commitly/cache/clone.json.
type Output struct {
	ChangedFiles   []string `json:"changed_files"`
	RollbackAnchor string   `json:"rollback_anchor"`
}

type Agent struct {
	HubMgr *hub.Manager
	Git    *gitgw.Gateway
}

func New(hubMgr *hub.Manager, git *gitgw.Gateway) *Agent {
	return &Agent{HubMgr: hubMgr, Git: git}
}

func (a *Agent) Name() string { return "clone" }

func (a *Agent) Execute(ctx context.Context, rc *runctx.Context, log *logsink.Sink) (any, string, error) {
	h := &hub.Hub{Path: rc.HubPath, WorkspacePath: rc.WorkspacePath, Remote: rc.RemoteName}
	branchName := ids.AgentBranchName("clone", rc.RunID)

	log.Printf("creating branch %s from %s", branchName, rc.WorkingBranch)
	if err := a.HubMgr.CreateAgentBranch(ctx, h, rc.WorkingBranch, branchName); err != nil {
		return nil, "", err
	}

	anchor, err := a.Git.RevParse(ctx, h.Path, "HEAD")
	if err != nil {
		return nil, branchName, perr.Wrap(perr.KindHubUnavailable, "resolve rollback anchor", err)
	}

	log.Printf("applying user diff")
	if err := a.HubMgr.ApplyUserDiff(ctx, h, rc.WorkingBranch); err != nil {
		return nil, branchName, err
	}

	expected, err := a.Git.DiffNameOnly(ctx, rc.WorkspacePath, rc.RemoteName+"/"+rc.WorkingBranch, "HEAD")
	if err != nil {
		return nil, branchName, perr.Wrap(perr.KindHubUnavailable, "compute expected changed files", err)
	}

	statusLines, err := a.Git.StatusPorcelain(ctx, h.Path)
	if err != nil {
		return nil, branchName, perr.Wrap(perr.KindHubUnavailable, "check hub status", err)
	}
	actual := filesFromStatus(statusLines)

	if unexpected := setDifference(actual, expected); len(unexpected) > 0 {
		return nil, branchName, perr.New(perr.KindVerificationMismatch,
			fmt.Sprintf("unexpected files present in status: %v", unexpected))
	}

	if err := a.Git.Commit(ctx, h.Path, fmt.Sprintf("commitly: clone snapshot %s", rc.RunID)); err != nil {
		return nil, branchName, perr.Wrap(perr.KindHubUnavailable, "commit clone branch", err)
	}

	absChanged := make([]string, 0, len(expected))
	for _, f := range expected {
		absChanged = append(absChanged, filepath.Join(h.Path, f))
	}
	sort.Strings(absChanged)

	rc.Branches.Clone = branchName
	rc.ChangedFiles = absChanged
	rc.RollbackAnchor = anchor

	return Output{ChangedFiles: absChanged, RollbackAnchor: anchor}, branchName, nil
}

func filesFromStatus(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if len(line) < 4 {
			continue
		}
		out = append(out, line[3:])
	}
	return out
}

func setDifference(actual, expected []string) []string {
	expectedSet := make(map[string]bool, len(expected))
	for _, f := range expected {
		expectedSet[f] = true
	}
	var diff []string
	for _, f := range actual {
		if !expectedSet[f] {
			diff = append(diff, f)
		}
	}
	sort.Strings(diff)
	return diff
}
