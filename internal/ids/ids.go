// Package ids generates run identifiers and derivative branch names.
package ids

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// NewRunID returns a fresh unique identifier for one pipeline invocation.
func NewRunID() string {
	return uuid.NewString()
}

var unsafeBranchChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// SanitizeForBranch makes s safe to embed in a git branch path segment.
func SanitizeForBranch(s string) string {
	s = unsafeBranchChars.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "run"
	}
	return s
}

// AgentBranchName returns the derivative branch name "commitly/<agent>/<runID>".
func AgentBranchName(agent, runID string) string {
	return fmt.Sprintf("commitly/%s/%s", agent, SanitizeForBranch(runID))
}
