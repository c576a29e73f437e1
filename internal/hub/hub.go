// Package hub owns the lifecycle of the shadow working tree, a replica of
// the user repository located at "<parent(user_repo)>/.commitly_hub_<repo_name>",
// in which every pipeline agent mutation occurs: locate-or-create a sibling
// directory, track it by a derived name, garbage-collect it deterministically.
package hub

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/commitly/commitly/internal/gitgw"
	"github.com/commitly/commitly/internal/perr"
)

// Hub is the shadow working tree for one user repository.
type Hub struct {
	Path          string
	WorkspacePath string
	Remote        string
	RemoteURL     string
}

// Manager creates, refreshes, and tears down Hubs through the Git Gateway.
type Manager struct {
	Git         *gitgw.Gateway
	MaxAttempts int
	BaseDelay   time.Duration
	Sleep       func(time.Duration)
}

// NewManager returns a Manager with its defaults: up to 3 attempts
// with exponential backoff on transient Ensure failures.
func NewManager(git *gitgw.Gateway) *Manager {
	return &Manager{
		Git:         git,
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		Sleep:       time.Sleep,
	}
}

func hubPathFor(workspacePath string) string {
	repoName := filepath.Base(filepath.Clean(workspacePath))
	return filepath.Join(filepath.Dir(filepath.Clean(workspacePath)), ".commitly_hub_"+repoName)
}

// Ensure locates or creates the hub for workspacePath: a shallow clone if
// absent, a fetch + fast-forward of workingBranch if present. Makes up to
// MaxAttempts attempts, with exponential backoff between them, retrying
// after any failure.
func (m *Manager) Ensure(ctx context.Context, workspacePath, remote, workingBranch string) (*Hub, error) {
	remoteURL, err := m.Git.RemoteURL(ctx, workspacePath, remote)
	if err != nil {
		return nil, perr.Wrap(perr.KindHubUnavailable, "resolve remote url", err)
	}

	hubPath := hubPathFor(workspacePath)
	hub := &Hub{Path: hubPath, WorkspacePath: workspacePath, Remote: remote, RemoteURL: remoteURL}

	var lastErr error
	for attempt := 0; attempt < m.MaxAttempts; attempt++ {
		if attempt > 0 {
			m.Sleep(m.backoff(attempt))
		}
		if err := m.ensureOnce(ctx, hub, workingBranch); err != nil {
			lastErr = err
			continue
		}
		return hub, nil
	}
	return nil, perr.Wrap(perr.KindHubUnavailable, "ensure hub after retries", lastErr)
}

func (m *Manager) backoff(attempt int) time.Duration {
	return time.Duration(float64(m.BaseDelay) * math.Pow(2, float64(attempt-1)))
}

func (m *Manager) ensureOnce(ctx context.Context, hub *Hub, workingBranch string) error {
	if _, err := os.Stat(hub.Path); os.IsNotExist(err) {
		return m.Git.CloneDepth1(ctx, hub.RemoteURL, hub.Path)
	} else if err != nil {
		return err
	}
	if err := m.Git.Fetch(ctx, hub.Path, hub.Remote); err != nil {
		return err
	}
	if err := m.Git.Checkout(ctx, hub.Path, workingBranch); err != nil {
		return err
	}
	return m.Git.ResetHard(ctx, hub.Path, hub.Remote+"/"+workingBranch)
}

// CreateAgentBranch checks out parent and creates+checks-out newBranch.
// A pre-existing newBranch is a run-id collision and must abort the
// pipeline.
func (m *Manager) CreateAgentBranch(ctx context.Context, hub *Hub, parent, newBranch string) error {
	exists, err := m.Git.BranchExists(ctx, hub.Path, newBranch)
	if err != nil {
		return perr.Wrap(perr.KindHubUnavailable, "check branch existence", err)
	}
	if exists {
		return perr.New(perr.KindBranchExists, fmt.Sprintf("branch %s already exists", newBranch))
	}
	if err := m.Git.Checkout(ctx, hub.Path, parent); err != nil {
		return perr.Wrap(perr.KindHubUnavailable, "checkout parent branch", err)
	}
	if err := m.Git.CheckoutNewBranch(ctx, hub.Path, newBranch); err != nil {
		return perr.Wrap(perr.KindHubUnavailable, "create agent branch", err)
	}
	return nil
}

// ApplyUserDiff computes the patch between the hub's workingBranch upstream
// tip and the user's local tip (by diffing inside the workspace) and
// applies it to the hub's current branch. An empty patch is not an error:
// it is the expected result of an idempotent rerun against an unchanged
// workspace.
func (m *Manager) ApplyUserDiff(ctx context.Context, hub *Hub, workingBranch string) error {
	upstreamRef := hub.Remote + "/" + workingBranch
	patch, err := m.Git.DiffPatch(ctx, hub.WorkspacePath, upstreamRef, "HEAD")
	if err != nil {
		return perr.Wrap(perr.KindPatchConflict, "compute user diff", err)
	}
	if len(strings.TrimSpace(string(patch))) == 0 {
		return nil
	}
	if err := m.Git.ApplyCheck(ctx, hub.Path, patch); err != nil {
		return perr.Wrap(perr.KindPatchConflict, "patch would not apply cleanly", err)
	}
	if err := m.Git.Apply(ctx, hub.Path, patch); err != nil {
		return perr.Wrap(perr.KindPatchConflict, "apply user diff", err)
	}
	return nil
}

// ResetTo hard-resets the hub's current branch pointer and working tree to
// branch.
func (m *Manager) ResetTo(ctx context.Context, hub *Hub, branch string) error {
	if err := m.Git.Checkout(ctx, hub.Path, branch); err != nil {
		return perr.Wrap(perr.KindHubUnavailable, "checkout for reset", err)
	}
	if err := m.Git.ResetHard(ctx, hub.Path, branch); err != nil {
		return perr.Wrap(perr.KindHubUnavailable, "reset to branch", err)
	}
	return nil
}

// Cleanup deletes the given derivative branches; non-existence is not an
// error (delegated to the Git Gateway's DeleteBranch semantics).
func (m *Manager) Cleanup(ctx context.Context, hub *Hub, branches []string) error {
	for _, b := range branches {
		if err := m.Git.DeleteBranch(ctx, hub.Path, b); err != nil {
			return perr.Wrap(perr.KindHubUnavailable, fmt.Sprintf("delete branch %s", b), err)
		}
	}
	return m.Git.PruneWorktrees(ctx, hub.Path)
}

// Destroy removes the hub directory entirely. Used by the Rollback Engine
// when pipeline.cleanup_hub_on_failure is configured.
func (m *Manager) Destroy(hub *Hub) error {
	return os.RemoveAll(hub.Path)
}
