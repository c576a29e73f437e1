package collab

import (
	"context"
	"fmt"
	"time"
)

// UnconfiguredNotifier implements Notifier by always failing. It is the
// Notifier the CLI wires in, so when notify.channel is set the Notify agent
// records a non-blocking `failed` outcome instead of the pipeline needing a
// nil check at the call site (with an empty channel the agent skips
// without calling it).
type UnconfiguredNotifier struct{}

func (UnconfiguredNotifier) Search(ctx context.Context, channel string, window time.Duration) ([]Message, error) {
	return nil, fmt.Errorf("chat platform notifier not configured")
}

func (UnconfiguredNotifier) Reply(ctx context.Context, threadID, text string) error {
	return fmt.Errorf("chat platform notifier not configured")
}
