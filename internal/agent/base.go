// Package agent provides the Agent Base template executor:
// it wraps every agent with start/stop timestamps, a structured per-agent
// log sink, output caching, and uniform error capture so individual agents
// never need to touch the Run Context's bookkeeping fields themselves.
// Each phase follows the same shape: log transition, run, record timing,
// persist state.
package agent

import (
	"context"
	"time"

	"github.com/commitly/commitly/internal/logsink"
	"github.com/commitly/commitly/internal/perr"
	"github.com/commitly/commitly/internal/runctx"
)

// Agent is the uniform interface every one of the seven pipeline agents
// implements.
type Agent interface {
	// Name is the agent's identifier (clone, code, test, refactor, sync,
	// notify, report) — also the log/cache file prefix.
	Name() string

	// Execute runs the agent's work against the shared Run Context. It
	// returns a structured output value (serialized into the agent's cache
	// file) and the branch it created on the hub, if any. Execute must not
	// panic across the Base boundary; it returns errors as values.
	Execute(ctx context.Context, rc *runctx.Context, log *logsink.Sink) (output any, branch string, err error)
}

// Base is the template executor wrapping every Agent invocation.
type Base struct {
	LogsDir string
	Store   *runctx.Store
	Now     func() time.Time
}

// New returns a Base writing logs under logsDir and persisting state via
// store.
func New(logsDir string, store *runctx.Store) *Base {
	return &Base{LogsDir: logsDir, Store: store, Now: time.Now}
}

func (b *Base) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

// Run executes a through the Base template:
//  1. records started_at
//  2. opens .commitly/logs/<name>/<ts>.log
//  3. calls Execute, capturing any failure as a structured ErrorRecord
//  4. records ended_at, caches the output, updates the outcome map
//  5. never returns an error to the Orchestrator — the *AgentOutcome IS
//     the result; Orchestrator reads outcome.Status.
func (b *Base) Run(ctx context.Context, a Agent, rc *runctx.Context) *runctx.AgentOutcome {
	name := a.Name()
	outcome := rc.Outcome(name)
	outcome.Status = runctx.StatusRunning
	started := b.now()
	outcome.StartedAt = &started

	sink, sinkErr := logsink.Open(b.LogsDir, name, started)
	if sinkErr == nil {
		outcome.LogPath = sink.Path
	}
	defer sink.Close()

	output, branch, execErr := a.Execute(ctx, rc, sink)

	ended := b.now()
	outcome.EndedAt = &ended
	if branch != "" {
		outcome.Branch = branch
	}
	outcome.Output = output

	if execErr != nil {
		pe := perr.AsPipelineError(execErr)
		rec := &runctx.ErrorRecord{Kind: string(pe.Kind), Message: pe.Message}
		if pe.Cause != nil {
			rec.Cause = pe.Cause.Error()
		}
		outcome.Error = rec
		outcome.Status = runctx.StatusFailed
		rc.Error = rec
	} else {
		outcome.Status = runctx.StatusSucceeded
	}

	rc.Outcomes[name] = outcome
	_ = b.Store.SaveAgentCache(name, outcome)
	_ = b.Store.Save(rc)
	return outcome
}
