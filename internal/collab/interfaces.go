// Package collab defines the collaborator interfaces that sit outside the
// pipeline core — only their interfaces are specified here; production
// adapters (a real LLM API client, a real chat platform client, PDF/HTML
// rendering) live outside this package. Commitly ships fakes for testing
// plus the one renderer Commitly itself is required to produce (markdown).
package collab

import (
	"context"
	"io"
	"time"
)

// LLMHandle is the language-model collaborator interface.
type LLMHandle interface {
	Complete(ctx context.Context, prompt, system string) (string, error)
	SuggestRefactoring(ctx context.Context, code, filePath, rules string) (string, error)
	SuggestQueries(ctx context.Context, schema, query, dialect string, n int) ([]string, error)
}

// Message is one chat-platform message returned by Notifier.Search.
type Message struct {
	ThreadID string
	Author   string
	Text     string
	PostedAt time.Time
}

// Notifier is the chat-platform collaborator interface.
type Notifier interface {
	Search(ctx context.Context, channel string, window time.Duration) ([]Message, error)
	Reply(ctx context.Context, threadID, text string) error
}

// ReportData is the input to a ReportRenderer: everything the Report agent
// gathered from per-agent caches across the requested date range.
type ReportData struct {
	ProjectName string
	From, To    time.Time
	Runs        []ReportRun
}

// ReportRun summarizes one pipeline run for the report.
type ReportRun struct {
	RunID            string
	Status           string
	StartedAt        time.Time
	EndedAt          time.Time
	ChangedFiles     []string
	TestPassed       bool
	RefactorHighlights []string
	QueryHighlights  []string
}

// ReportRenderer renders ReportData in a requested format. Only "md" is
// implemented directly; other formats degrade to markdown.
type ReportRenderer interface {
	Render(ctx context.Context, format string, w io.Writer, data ReportData) error
}

// ApprovalSource is the pluggable human gate behind the Sync agent's single
// approval point.
type ApprovalSource interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}
