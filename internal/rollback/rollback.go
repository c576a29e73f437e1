// Package rollback implements the Rollback Engine: on any
// blocking-agent failure it rewinds the hub to the last successful branch,
// deletes every derivative branch created by or after the failing agent,
// persists the error record, marks the Run failed, optionally destroys the
// hub, and releases the pipeline lock. It never retries the failed agent —
// recovery is user-initiated via a fresh commit.
package rollback

import (
	"context"
	"fmt"
	"time"

	"github.com/commitly/commitly/internal/hub"
	"github.com/commitly/commitly/internal/logsink"
	"github.com/commitly/commitly/internal/runctx"
)

// derivativeOrder is the Clone->Code->Test->Refactor branch-creation order.
// Sync/Notify/Report create no derivative branch, so a failure at those
// stages resolves to an empty deletion slice below with no special case
// needed — a sync push failure deletes nothing.
var derivativeOrder = []string{"clone", "code", "test", "refactor"}

// Engine performs the rollback steps against one Hub.
type Engine struct {
	Hub   *hub.Manager
	Store *runctx.Store
}

func New(hubMgr *hub.Manager, store *runctx.Store) *Engine {
	return &Engine{Hub: hubMgr, Store: store}
}

// Options configures one rollback invocation.
type Options struct {
	FailingAgent        string
	CleanupHubOnFailure bool
	LocalLogsDir        string
	Release             func() error // releases the single-writer pipeline lock
}

// Run executes the rollback sequence, sets the Run's status to failed and
// saves the Context, and returns the first error encountered, if any.
func (e *Engine) Run(ctx context.Context, h *hub.Hub, rc *runctx.Context, opts Options) error {
	target := rc.LastSuccessfulBranch()
	resetErr := e.Hub.ResetTo(ctx, h, target)

	toDelete := branchesAtOrAfter(rc, opts.FailingAgent)
	cleanupErr := e.Hub.Cleanup(ctx, h, toDelete)

	e.persistErrorRecord(h, opts.LocalLogsDir, rc)

	rc.Status = runctx.RunFailed
	rc.EndedAt = time.Now()
	_ = e.Store.Save(rc)

	if opts.CleanupHubOnFailure {
		_ = e.Hub.Destroy(h)
	}

	var releaseErr error
	if opts.Release != nil {
		releaseErr = opts.Release()
	}

	for _, err := range []error{resetErr, cleanupErr, releaseErr} {
		if err != nil {
			return err
		}
	}
	return nil
}

func branchesAtOrAfter(rc *runctx.Context, failingAgent string) []string {
	idx := -1
	for i, name := range derivativeOrder {
		if name == failingAgent {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil
	}
	all := []string{rc.Branches.Clone, rc.Branches.Code, rc.Branches.Test, rc.Branches.Refactor}
	// rc.Branches is only set when an agent succeeds; the failing agent's own
	// branch is known from its outcome.
	if o, ok := rc.Outcomes[failingAgent]; ok && o != nil && o.Branch != "" && all[idx] == "" {
		all[idx] = o.Branch
	}
	var out []string
	for i := idx; i < len(all); i++ {
		if all[i] != "" {
			out = append(out, all[i])
		}
	}
	return out
}

func (e *Engine) persistErrorRecord(h *hub.Hub, localLogsDir string, rc *runctx.Context) {
	if rc.Error == nil {
		return
	}
	line := fmt.Sprintf("run=%s agent-error kind=%s message=%s cause=%s\n",
		rc.RunID, rc.Error.Kind, rc.Error.Message, rc.Error.Cause)

	now := time.Now()
	if localSink, err := logsink.Open(localLogsDir, "rollback", now); err == nil {
		_, _ = localSink.Write([]byte(line))
		_ = localSink.Close()
	}
	if h != nil {
		hubLogsDir := h.Path + "/.commitly/logs"
		if hubSink, err := logsink.Open(hubLogsDir, "rollback", now); err == nil {
			_, _ = hubSink.Write([]byte(line))
			_ = hubSink.Close()
		}
	}
}
