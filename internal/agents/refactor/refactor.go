// Package refactor implements the Refactor Agent: it asks
// the language-model handle to rewrite each changed file under a fixed
// rule set, formats the result, and verifies it against the project test
// suite — reverting just the offending file on failure rather than
// aborting the pipeline.
package refactor

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/commitly/commitly/internal/collab"
	"github.com/commitly/commitly/internal/config"
	"github.com/commitly/commitly/internal/gitgw"
	"github.com/commitly/commitly/internal/hub"
	"github.com/commitly/commitly/internal/ids"
	"github.com/commitly/commitly/internal/logsink"
	"github.com/commitly/commitly/internal/perr"
	"github.com/commitly/commitly/internal/procrun"
	"github.com/commitly/commitly/internal/runctx"
)

// FileOutcome records what happened to one changed file.
type FileOutcome struct {
	FilePath string `json:"file_path"`
	Applied  bool   `json:"applied"`
	Reverted bool   `json:"reverted"`
	Reason   string `json:"reason,omitempty"`
}

// Output is the structured result cached at .commitly/cache/refactor.json.
type Output struct {
	Files []FileOutcome `json:"files"`
}

type Agent struct {
	HubMgr *hub.Manager
	Git    *gitgw.Gateway
	Config *config.Config
	LLM    collab.LLMHandle
}

func New(hubMgr *hub.Manager, git *gitgw.Gateway, cfg *config.Config, llm collab.LLMHandle) *Agent {
	return &Agent{HubMgr: hubMgr, Git: git, Config: cfg, LLM: llm}
}

func (a *Agent) Name() string { return "refactor" }

func (a *Agent) Execute(ctx context.Context, rc *runctx.Context, log *logsink.Sink) (any, string, error) {
	h := &hub.Hub{Path: rc.HubPath, WorkspacePath: rc.WorkspacePath, Remote: rc.RemoteName}
	branchName := ids.AgentBranchName("refactor", rc.RunID)

	log.Printf("creating branch %s from %s", branchName, rc.Branches.Test)
	if err := a.HubMgr.CreateAgentBranch(ctx, h, rc.Branches.Test, branchName); err != nil {
		return nil, "", err
	}

	var outcomes []FileOutcome
	anyApplied := false

	for _, file := range rc.ChangedFiles {
		outcome := a.refactorOne(ctx, h.Path, file, log)
		outcomes = append(outcomes, outcome)
		if outcome.Applied {
			anyApplied = true
		}
	}

	if anyApplied {
		if err := a.Git.Commit(ctx, h.Path, fmt.Sprintf("commitly: refactor %s", rc.RunID)); err != nil {
			return nil, branchName, perr.Wrap(perr.KindHubUnavailable, "commit refactor branch", err)
		}
	} else {
		log.Printf("no file successfully refactored; skipping commit")
	}

	rc.Branches.Refactor = branchName
	return Output{Files: outcomes}, branchName, nil
}

func (a *Agent) refactorOne(ctx context.Context, hubPath, path string, log *logsink.Sink) FileOutcome {
	outcome := FileOutcome{FilePath: path}

	original, err := os.ReadFile(path)
	if err != nil {
		outcome.Reason = "could not read file: " + err.Error()
		return outcome
	}

	suggestion, err := a.LLM.SuggestRefactoring(ctx, string(original), path, a.Config.Refactor.Rules)
	if err != nil {
		// LLMUnavailable (or any LLM error) degrades this file to a no-op
		// rather than failing the whole agent.
		outcome.Reason = "language model unavailable: " + err.Error()
		return outcome
	}

	if err := os.WriteFile(path, []byte(suggestion), 0o644); err != nil {
		outcome.Reason = "could not write suggestion: " + err.Error()
		return outcome
	}

	if a.Config.Refactor.Formatter != "" {
		if _, err := procrun.Run(ctx, procrun.Options{
			Command: a.Config.Refactor.Formatter + " " + path,
			Dir:     filepathDir(path),
			Env:     os.Environ(),
			Timeout: 60 * time.Second,
			Sink:    log,
		}); err != nil {
			log.Printf("formatter failed for %s: %v", path, err)
		}
	}

	if err := a.runTests(ctx, hubPath, log); err != nil {
		if revertErr := os.WriteFile(path, original, 0o644); revertErr != nil {
			outcome.Reason = fmt.Sprintf("tests failed and revert failed: %v / %v", err, revertErr)
			return outcome
		}
		outcome.Reverted = true
		outcome.Reason = "reverted after test failure: " + err.Error()
		return outcome
	}

	outcome.Applied = true
	return outcome
}

func (a *Agent) runTests(ctx context.Context, hubPath string, log *logsink.Sink) error {
	res, err := procrun.Run(ctx, procrun.Options{
		Command: a.Config.Test.Command,
		Dir:     hubPath,
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

func filepathDir(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}
