// Package pipeline implements the Pipeline Orchestrator:
// the fixed Clone -> Code -> Test -> Refactor -> Sync -> Notify -> Report
// schedule, blocking/non-blocking failure translation, the single-writer
// lock scope, and the exit-code contract.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/commitly/commitly/internal/agent"
	"github.com/commitly/commitly/internal/agents/clone"
	"github.com/commitly/commitly/internal/agents/code"
	"github.com/commitly/commitly/internal/agents/notify"
	"github.com/commitly/commitly/internal/agents/refactor"
	"github.com/commitly/commitly/internal/agents/report"
	"github.com/commitly/commitly/internal/agents/sync"
	"github.com/commitly/commitly/internal/agents/test"
	"github.com/commitly/commitly/internal/collab"
	"github.com/commitly/commitly/internal/config"
	"github.com/commitly/commitly/internal/gitgw"
	"github.com/commitly/commitly/internal/hub"
	"github.com/commitly/commitly/internal/ids"
	"github.com/commitly/commitly/internal/lock"
	"github.com/commitly/commitly/internal/perr"
	"github.com/commitly/commitly/internal/rollback"
	"github.com/commitly/commitly/internal/runctx"
)

// Exit codes for the command surface.
const (
	ExitSuccess           = 0
	ExitPipelineFailed    = 1
	ExitDeclinedAtSync    = 2
	ExitConfigurationErr  = 3
	ExitLockHeld          = 4
)

// blockingAgents are the agents whose failure aborts the run via Rollback.
// notify/report are deliberately absent.
var blockingAgents = map[string]bool{
	"clone": true, "code": true, "test": true, "refactor": true, "sync": true,
}

// Orchestrator wires every dependency the seven agents need and drives the
// fixed schedule.
type Orchestrator struct {
	Config   *config.Config
	Git      *gitgw.Gateway
	HubMgr   *hub.Manager
	Store    *runctx.Store
	Base     *agent.Base
	Lock     *lock.RepoLock
	Rollback *rollback.Engine
	Approval collab.ApprovalSource
	LLM      collab.LLMHandle
	Notifier collab.Notifier
	Renderer collab.ReportRenderer
	DB       *pgxpool.Pool
	CacheDir string
	LogsDir  string
	Now      func() time.Time
}

// Result is what the CLI prints and exits with.
type Result struct {
	Context  *runctx.Context
	ExitCode int
}

// Run executes one pipeline invocation for workspacePath, preconditioned on
// the caller already having recorded the new commit(s) there.
func (o *Orchestrator) Run(ctx context.Context, workspacePath, projectName string) (*Result, error) {
	if err := o.Config.Validate(); err != nil {
		return &Result{ExitCode: ExitConfigurationErr}, err
	}

	runID := ids.NewRunID()
	release, err := o.Lock.Acquire(runID)
	if err != nil {
		return &Result{ExitCode: ExitLockHeld}, err
	}

	rc := runctx.New(runID, projectName, workspacePath)
	rc.RemoteName = o.Config.Git.Remote
	rc.Execution = runctx.ExecutionProfile{
		PrimaryCommand: o.Config.Execution.Command,
		TestCommand:    o.Config.Test.Command,
		Timeout:        time.Duration(o.Config.Execution.Timeout) * time.Second,
		TestTimeout:    time.Duration(o.Config.Test.Timeout) * time.Second,
		Interpreter:    o.Config.Execution.PythonBin,
	}

	branch, err := o.Git.CurrentBranch(ctx, workspacePath)
	if err != nil {
		_ = release()
		return &Result{Context: rc, ExitCode: ExitPipelineFailed}, perr.Wrap(perr.KindHubUnavailable, "resolve current branch", err)
	}
	rc.WorkingBranch = branch

	if entries, err := o.Git.Log(ctx, workspacePath, o.Config.Git.Remote+"/"+branch+"..HEAD"); err == nil {
		for _, e := range entries {
			ts, _ := time.Parse(time.RFC3339, e.Timestamp)
			rc.UserCommits = append(rc.UserCommits, runctx.Commit{Hash: e.Hash, Message: e.Message, Author: e.Author, Timestamp: ts})
		}
	}

	h, err := o.HubMgr.Ensure(ctx, workspacePath, rc.RemoteName, branch)
	if err != nil {
		_ = release()
		rc.Status = runctx.RunFailed
		_ = o.Store.Save(rc)
		return &Result{Context: rc, ExitCode: ExitPipelineFailed}, err
	}
	rc.HubPath = h.Path

	_ = o.Store.Save(rc)

	agents := []agent.Agent{
		clone.New(o.HubMgr, o.Git),
		code.New(o.HubMgr, o.Git, o.Config),
		test.New(o.HubMgr, o.Git, o.Config, o.DB, o.LLM),
		refactor.New(o.HubMgr, o.Git, o.Config, o.LLM),
		sync.New(o.HubMgr, o.Git, o.Approval),
		notify.New(o.Notifier, o.Config),
		report.New(o.Renderer, o.Config, o.CacheDir),
	}

	for _, a := range agents {
		outcome := o.Base.Run(ctx, a, rc)

		if outcome.Status != runctx.StatusFailed {
			continue
		}
		if !blockingAgents[a.Name()] {
			continue // Notify/Report: failure recorded, pipeline continues
		}

		o.Rollback.Run(ctx, h, rc, rollback.Options{
			FailingAgent:        a.Name(),
			CleanupHubOnFailure: o.Config.Pipeline.CleanupHubOnFailure,
			LocalLogsDir:        o.LogsDir,
			Release:             release,
		})
		return &Result{Context: rc, ExitCode: ExitPipelineFailed}, fmt.Errorf("agent %s failed: %s", a.Name(), rc.Error.Message)
	}

	if rc.Status != runctx.RunApprovedNoPush {
		rc.Status = runctx.RunSucceeded
	}
	rc.EndedAt = o.now()
	_ = o.Store.Save(rc)
	_ = release()

	exitCode := ExitSuccess
	if rc.Status == runctx.RunApprovedNoPush {
		exitCode = ExitDeclinedAtSync
	}
	return &Result{Context: rc, ExitCode: exitCode}, nil
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}
