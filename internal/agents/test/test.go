// Package test implements the Test Agent: runs the project
// test command, then unlocks the SQL Optimization Subloop when the
// discovered embedded queries are non-empty.
package test

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/commitly/commitly/internal/collab"
	"github.com/commitly/commitly/internal/config"
	"github.com/commitly/commitly/internal/gitgw"
	"github.com/commitly/commitly/internal/hub"
	"github.com/commitly/commitly/internal/ids"
	"github.com/commitly/commitly/internal/logsink"
	"github.com/commitly/commitly/internal/perr"
	"github.com/commitly/commitly/internal/procrun"
	"github.com/commitly/commitly/internal/runctx"
	"github.com/commitly/commitly/internal/sqlopt"
)

// Output is the structured result cached at .commitly/cache/test.json.
type Output struct {
	TestStdout   string              `json:"test_stdout"`
	TestStderr   string              `json:"test_stderr"`
	SiteReports  []sqlopt.SiteReport `json:"site_reports"`
	OptimizerRan bool                `json:"optimizer_ran"`
}

type Agent struct {
	HubMgr *hub.Manager
	Git    *gitgw.Gateway
	Config *config.Config
	DB     *pgxpool.Pool // nil when database.* is not configured
	LLM    collab.LLMHandle
}

func New(hubMgr *hub.Manager, git *gitgw.Gateway, cfg *config.Config, db *pgxpool.Pool, llm collab.LLMHandle) *Agent {
	return &Agent{HubMgr: hubMgr, Git: git, Config: cfg, DB: db, LLM: llm}
}

func (a *Agent) Name() string { return "test" }

func (a *Agent) Execute(ctx context.Context, rc *runctx.Context, log *logsink.Sink) (any, string, error) {
	h := &hub.Hub{Path: rc.HubPath, WorkspacePath: rc.WorkspacePath, Remote: rc.RemoteName}
	branchName := ids.AgentBranchName("test", rc.RunID)

	log.Printf("creating branch %s from %s", branchName, rc.Branches.Code)
	if err := a.HubMgr.CreateAgentBranch(ctx, h, rc.Branches.Code, branchName); err != nil {
		return nil, "", err
	}

	runTests := func(ctx context.Context) error {
		res, err := procrun.Run(ctx, procrun.Options{
			Command: a.Config.Test.Command,
			Dir:     h.Path,
			Env:     os.Environ(),
			Timeout: time.Duration(a.Config.Test.Timeout) * time.Second,
			Sink:    log,
		})
		if err != nil {
			return err
		}
		if res.TimedOut {
			return fmt.Errorf("test command timed out")
		}
		if res.ExitCode != 0 {
			return fmt.Errorf("test command exited %d", res.ExitCode)
		}
		return nil
	}

	res, err := procrun.Run(ctx, procrun.Options{
		Command: a.Config.Test.Command,
		Dir:     h.Path,
		Env:     os.Environ(),
		Timeout: time.Duration(a.Config.Test.Timeout) * time.Second,
		Sink:    log,
	})
	if err != nil {
		return nil, branchName, perr.Wrap(perr.KindTestFailed, "run test command", err)
	}
	if res.TimedOut {
		return nil, branchName, perr.New(perr.KindTimeout, "test command timed out")
	}
	if res.ExitCode != 0 {
		return nil, branchName, perr.New(perr.KindTestFailed, fmt.Sprintf("test command exited %d", res.ExitCode))
	}

	var reports []sqlopt.SiteReport
	optimizerRan := false
	if rc.HasEmbeddedQueries {
		optimizerRan = true
		optimizer := &sqlopt.Optimizer{DB: a.DB, LLM: a.LLM, Dialect: a.Config.Query.Dialect, RunTests: runTests}
		reports, err = optimizer.Run(ctx, rc.EmbeddedQuerySites)
		if err != nil {
			return Output{SiteReports: reports, OptimizerRan: true}, branchName, err
		}
	}

	if err := a.Git.Commit(ctx, h.Path, fmt.Sprintf("commitly: test + optimize %s", rc.RunID)); err != nil {
		return nil, branchName, perr.Wrap(perr.KindHubUnavailable, "commit test branch", err)
	}

	rc.Branches.Test = branchName
	out := Output{
		TestStdout:   truncate(res.Stdout, 8000),
		TestStderr:   truncate(res.Stderr, 8000),
		SiteReports:  reports,
		OptimizerRan: optimizerRan,
	}
	return out, branchName, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}
