// Package runctx defines the Run Context: the single, serializable value
// threaded through every agent.
// It is exclusively owned by the Pipeline Orchestrator; agents mutate it
// only while running inside the Agent Base wrapper, which reserializes it
// to disk on every return so partial runs are inspectable.
package runctx

import "time"

// AgentStatus is one of the states an agent outcome can be in.
type AgentStatus string

const (
	StatusPending   AgentStatus = "pending"
	StatusRunning   AgentStatus = "running"
	StatusSucceeded AgentStatus = "succeeded"
	StatusFailed    AgentStatus = "failed"
	StatusSkipped   AgentStatus = "skipped"
	StatusBlocked   AgentStatus = "blocked"
)

// RunStatus is the Pipeline Run's terminal status.
type RunStatus string

const (
	RunPending          RunStatus = "pending"
	RunSucceeded        RunStatus = "succeeded"
	RunFailed           RunStatus = "failed"
	RunApprovedNoPush   RunStatus = "approved_no_push"
	RunAborted          RunStatus = "aborted"
)

// Commit is one commit introduced by the just-recorded user action.
type Commit struct {
	Hash      string    `json:"hash"`
	Message   string    `json:"message"`
	Author    string    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorRecord captures a structured failure.
type ErrorRecord struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Cause     string `json:"cause,omitempty"`
	StackHint string `json:"stack_hint,omitempty"`
}

// AgentOutcome is the per-agent result carried in the Run Context outcome
// map.
type AgentOutcome struct {
	Status    AgentStatus  `json:"status"`
	StartedAt *time.Time   `json:"started_at,omitempty"`
	EndedAt   *time.Time   `json:"ended_at,omitempty"`
	Branch    string       `json:"branch,omitempty"`
	Output    any          `json:"output,omitempty"`
	Error     *ErrorRecord `json:"error,omitempty"`
	LogPath   string       `json:"log_path,omitempty"`
}

// EmbeddedQuerySite is a located SQL literal, produced by the Code agent's
// extraction pass and consumed by the Test agent's optimizer.
type EmbeddedQuerySite struct {
	FilePath         string   `json:"file_path"`
	Symbol           string   `json:"symbol"`
	LineStart        int      `json:"line_start"`
	LineEnd          int      `json:"line_end"`
	OriginalText     string   `json:"original_text"`
	Dialect          string   `json:"dialect"`
	ReferencedTables []string `json:"referenced_tables"`
}

// Branches holds the per-agent derivative branch names created on the hub.
type Branches struct {
	Clone    string `json:"clone,omitempty"`
	Code     string `json:"code,omitempty"`
	Test     string `json:"test,omitempty"`
	Refactor string `json:"refactor,omitempty"`
}

// ExecutionProfile is the run command / test command / timeout / interpreter
// profile carried from config into the Run Context.
type ExecutionProfile struct {
	PrimaryCommand string        `json:"primary_command"`
	TestCommand    string        `json:"test_command"`
	Timeout        time.Duration `json:"timeout"`
	TestTimeout    time.Duration `json:"test_timeout"`
	MemoryCapMB    int           `json:"memory_cap_mb"`
	Interpreter    string        `json:"interpreter"`
}

// Context is the full typed shared state.
type Context struct {
	// Identity
	RunID       string `json:"run_id"`
	ProjectName string `json:"project_name"`

	// Paths
	WorkspacePath string `json:"workspace_path"`
	HubPath       string `json:"hub_path"`
	EnvFilePath   string `json:"env_file_path"`

	// VCS
	RemoteName     string    `json:"remote_name"`
	WorkingBranch  string    `json:"working_branch"`
	UserCommits    []Commit  `json:"user_commits"`
	Branches       Branches  `json:"branches"`

	// Change set
	ChangedFiles         []string            `json:"changed_files"`
	HasEmbeddedQueries   bool                `json:"has_embedded_queries"`
	EmbeddedQuerySites   []EmbeddedQuerySite `json:"embedded_query_sites"`

	// Execution profile
	Execution ExecutionProfile `json:"execution"`

	// Error / rollback
	Error          *ErrorRecord `json:"error,omitempty"`
	RollbackAnchor string       `json:"rollback_anchor,omitempty"`

	// Per-agent outcomes, keyed by agent name (clone, code, test, refactor,
	// sync, notify, report).
	Outcomes map[string]*AgentOutcome `json:"outcomes"`

	// Run-level bookkeeping
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at,omitempty"`
	Status    RunStatus `json:"status"`
}

// New returns a fresh Context with an initialized, empty outcome map.
func New(runID, projectName, workspacePath string) *Context {
	return &Context{
		RunID:         runID,
		ProjectName:   projectName,
		WorkspacePath: workspacePath,
		Outcomes:      make(map[string]*AgentOutcome),
		Status:        RunPending,
		StartedAt:     time.Now(),
	}
}

// Outcome returns the outcome record for agent, creating a pending one if
// absent.
func (c *Context) Outcome(agent string) *AgentOutcome {
	if c.Outcomes == nil {
		c.Outcomes = make(map[string]*AgentOutcome)
	}
	o, ok := c.Outcomes[agent]
	if !ok {
		o = &AgentOutcome{Status: StatusPending}
		c.Outcomes[agent] = o
	}
	return o
}

// LastSuccessfulBranch returns the branch name of the last agent, in clone
// -> code -> test -> refactor order, that both created a branch and
// succeeded. Used by the Rollback Engine to pick a reset target.
func (c *Context) LastSuccessfulBranch() string {
	order := []string{"refactor", "test", "code", "clone"}
	for _, name := range order {
		if o, ok := c.Outcomes[name]; ok && o.Status == StatusSucceeded && o.Branch != "" {
			return o.Branch
		}
	}
	return c.WorkingBranch
}

// AllDerivativeBranches returns every non-empty derivative branch name this
// run has created, in clone/code/test/refactor order.
func (c *Context) AllDerivativeBranches() []string {
	var out []string
	for _, b := range []string{c.Branches.Clone, c.Branches.Code, c.Branches.Test, c.Branches.Refactor} {
		if b != "" {
			out = append(out, b)
		}
	}
	return out
}
