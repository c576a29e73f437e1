package hub

import (
	"testing"
	"time"
)

func TestHubPathFor(t *testing.T) {
	tests := []struct {
		name          string
		workspacePath string
		want          string
	}{
		{name: "simple repo path", workspacePath: "/home/dev/myrepo", want: "/home/dev/.commitly_hub_myrepo"},
		{name: "trailing slash is cleaned", workspacePath: "/home/dev/myrepo/", want: "/home/dev/.commitly_hub_myrepo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hubPathFor(tt.workspacePath); got != tt.want {
				t.Errorf("hubPathFor(%q) = %q, want %q", tt.workspacePath, got, tt.want)
			}
		})
	}
}

func TestManagerBackoffGrowsExponentially(t *testing.T) {
	m := &Manager{BaseDelay: 500 * time.Millisecond}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, time.Second},
		{3, 2 * time.Second},
	}
	for _, tt := range tests {
		if got := m.backoff(tt.attempt); got != tt.want {
			t.Errorf("backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}
