// Package notify implements the Notify Agent: a
// non-blocking agent that searches the chat platform for messages matching
// the commit message, a changed filename, or a configured keyword, and
// posts a resolved-style reply on each match.
package notify

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/commitly/commitly/internal/collab"
	"github.com/commitly/commitly/internal/config"
	"github.com/commitly/commitly/internal/logsink"
	"github.com/commitly/commitly/internal/perr"
	"github.com/commitly/commitly/internal/runctx"
)

// MatchedThread is one chat thread the agent found and replied to.
type MatchedThread struct {
	ThreadID string `json:"thread_id"`
	Matched  string `json:"matched_on"`
}

// Output is the structured result cached at .commitly/cache/notify.json.
type Output struct {
	Matches []MatchedThread `json:"matches"`
}

type Agent struct {
	Notifier collab.Notifier
	Config   *config.Config
}

func New(notifier collab.Notifier, cfg *config.Config) *Agent {
	return &Agent{Notifier: notifier, Config: cfg}
}

func (a *Agent) Name() string { return "notify" }

func (a *Agent) Execute(ctx context.Context, rc *runctx.Context, log *logsink.Sink) (any, string, error) {
	if a.Config.Notify.Channel == "" {
		log.Printf("notify.channel not configured; skipping")
		return Output{}, "", nil
	}

	window, err := time.ParseDuration(a.Config.Notify.Window)
	if err != nil {
		window = 24 * time.Hour
	}

	messages, err := a.Notifier.Search(ctx, a.Config.Notify.Channel, window)
	if err != nil {
		return nil, "", perr.Wrap(perr.KindInternalInvariant, "search chat platform", err)
	}

	needles := a.matchNeedles(rc)
	var matches []MatchedThread
	for _, msg := range messages {
		needle, ok := matchesAny(msg.Text, needles)
		if !ok {
			continue
		}
		if err := a.Notifier.Reply(ctx, msg.ThreadID, fmt.Sprintf("Resolved by commitly run %s", rc.RunID)); err != nil {
			log.Printf("reply to thread %s failed: %v", msg.ThreadID, err)
			continue
		}
		matches = append(matches, MatchedThread{ThreadID: msg.ThreadID, Matched: needle})
	}

	return Output{Matches: matches}, "", nil
}

func (a *Agent) matchNeedles(rc *runctx.Context) []string {
	var needles []string
	if len(rc.UserCommits) > 0 {
		needles = append(needles, rc.UserCommits[0].Message)
	}
	for _, f := range rc.ChangedFiles {
		needles = append(needles, filepath.Base(f))
	}
	needles = append(needles, a.Config.Notify.Keywords...)
	return needles
}

func matchesAny(text string, needles []string) (string, bool) {
	lower := strings.ToLower(text)
	for _, n := range needles {
		if n == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(n)) {
			return n, true
		}
	}
	return "", false
}
