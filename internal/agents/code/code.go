// Package code implements the Code Agent: it validates the
// clone snapshot syntactically and at runtime, then mines embedded SQL
// literals for the Test agent's optimizer.
package code

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/commitly/commitly/internal/config"
	"github.com/commitly/commitly/internal/gitgw"
	"github.com/commitly/commitly/internal/hub"
	"github.com/commitly/commitly/internal/ids"
	"github.com/commitly/commitly/internal/logsink"
	"github.com/commitly/commitly/internal/perr"
	"github.com/commitly/commitly/internal/procrun"
	"github.com/commitly/commitly/internal/runctx"
)

// LintWarning records a soft-skipped static analysis tool.
type LintWarning struct {
	Tool   string `json:"tool"`
	Reason string `json:"reason"`
}

// Output is the structured result cached at .commitly/cache/code.json.
type Output struct {
	LintWarnings       []LintWarning              `json:"lint_warnings"`
	PrimaryStdout      string                     `json:"primary_stdout"`
	PrimaryStderr      string                     `json:"primary_stderr"`
	HasEmbeddedQueries bool                       `json:"has_embedded_queries"`
	EmbeddedQuerySites []runctx.EmbeddedQuerySite `json:"embedded_query_sites"`
}

type Agent struct {
	HubMgr *hub.Manager
	Git    *gitgw.Gateway
	Config *config.Config
}

func New(hubMgr *hub.Manager, git *gitgw.Gateway, cfg *config.Config) *Agent {
	return &Agent{HubMgr: hubMgr, Git: git, Config: cfg}
}

func (a *Agent) Name() string { return "code" }

func (a *Agent) Execute(ctx context.Context, rc *runctx.Context, log *logsink.Sink) (any, string, error) {
	h := &hub.Hub{Path: rc.HubPath, WorkspacePath: rc.WorkspacePath, Remote: rc.RemoteName}
	branchName := ids.AgentBranchName("code", rc.RunID)

	log.Printf("creating branch %s from %s", branchName, rc.Branches.Clone)
	if err := a.HubMgr.CreateAgentBranch(ctx, h, rc.Branches.Clone, branchName); err != nil {
		return nil, "", err
	}

	if err := a.checkEnvironment(h); err != nil {
		return nil, branchName, err
	}
	envPairs, _ := loadEnvFile(filepath.Join(h.Path, a.Config.Execution.EnvFile))

	warnings := a.runStaticAnalysis(ctx, h, log)

	runEnv := buildEnv(a.Config.Execution.PythonBin, envPairs)
	result, err := procrun.Run(ctx, procrun.Options{
		Command: a.Config.Execution.Command,
		Dir:     h.Path,
		Env:     runEnv,
		Timeout: time.Duration(a.Config.Execution.Timeout) * time.Second,
		Sink:    log,
	})
	if err != nil {
		return nil, branchName, perr.Wrap(perr.KindRuntimeFailed, "run primary command", err)
	}
	if result.TimedOut {
		return nil, branchName, perr.New(perr.KindTimeout, "primary command timed out")
	}
	if result.ExitCode != 0 {
		return nil, branchName, perr.New(perr.KindRuntimeFailed,
			fmt.Sprintf("primary command exited %d: %s", result.ExitCode, truncate(result.Stderr, 2000)))
	}

	sites, err := extractEmbeddedQueries(h.Path, rc.ChangedFiles, a.Config.Query)
	if err != nil {
		return nil, branchName, perr.Wrap(perr.KindInternalInvariant, "extract embedded queries", err)
	}

	rc.EmbeddedQuerySites = sites
	rc.HasEmbeddedQueries = len(sites) > 0

	if err := a.Git.Commit(ctx, h.Path, fmt.Sprintf("commitly: code validation %s", rc.RunID)); err != nil {
		return nil, branchName, perr.Wrap(perr.KindHubUnavailable, "commit code branch", err)
	}

	rc.Branches.Code = branchName
	out := Output{
		LintWarnings:       warnings,
		PrimaryStdout:      truncate(result.Stdout, 8000),
		PrimaryStderr:      truncate(result.Stderr, 8000),
		HasEmbeddedQueries: rc.HasEmbeddedQueries,
		EmbeddedQuerySites: sites,
	}
	return out, branchName, nil
}

// checkEnvironment verifies the configured interpreter exists; a missing
// binary blocks the agent outright. Declared tool versions
// (execution.tool_versions) are not checked.
func (a *Agent) checkEnvironment(h *hub.Hub) error {
	bin := a.Config.Execution.PythonBin
	if bin == "" {
		return nil
	}
	if filepath.IsAbs(bin) {
		if _, err := os.Stat(bin); err != nil {
			return perr.Wrap(perr.KindEnvironmentBlocked, fmt.Sprintf("interpreter %s not found", bin), err)
		}
		return nil
	}
	if _, err := exec.LookPath(bin); err != nil {
		return perr.Wrap(perr.KindEnvironmentBlocked, fmt.Sprintf("interpreter %s not on PATH", bin), err)
	}
	return nil
}

// runStaticAnalysis invokes each configured linter command in turn. A
// linter whose binary cannot be found on PATH is a soft skip, not a
// failure.
func (a *Agent) runStaticAnalysis(ctx context.Context, h *hub.Hub, log *logsink.Sink) []LintWarning {
	var warnings []LintWarning
	for _, linter := range a.Config.Execution.Linters {
		args, err := procrun.SplitCommand(linter)
		if err != nil || len(args) == 0 {
			warnings = append(warnings, LintWarning{Tool: linter, Reason: "could not tokenize command"})
			continue
		}
		if _, err := exec.LookPath(args[0]); err != nil {
			log.Printf("static analysis: skipping %s (not found)", args[0])
			warnings = append(warnings, LintWarning{Tool: args[0], Reason: "binary not found on PATH"})
			continue
		}
		res, err := procrun.Run(ctx, procrun.Options{Command: linter, Dir: h.Path, Env: os.Environ(), Sink: log})
		if err != nil || res.ExitCode != 0 {
			log.Printf("static analysis: %s reported issues", linter)
			warnings = append(warnings, LintWarning{Tool: linter, Reason: "reported issues (non-blocking)"})
		}
	}
	return warnings
}

func loadEnvFile(path string) (map[string]string, error) {
	out := make(map[string]string)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return out, err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		out[strings.TrimSpace(k)] = strings.Trim(strings.TrimSpace(v), `"'`)
	}
	return out, scanner.Err()
}

func buildEnv(interpreterBin string, envFile map[string]string) []string {
	env := os.Environ()
	for k, v := range envFile {
		env = append(env, k+"="+v)
	}
	if interpreterBin != "" {
		interpDir := filepath.Dir(interpreterBin)
		pathVal := os.Getenv("PATH")
		env = append(env, "PATH="+interpDir+string(os.PathListSeparator)+pathVal)
	}
	return env
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}
