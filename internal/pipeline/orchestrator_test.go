package pipeline

import "testing"

func TestBlockingAgentsMembership(t *testing.T) {
	tests := []struct {
		agent string
		want  bool
	}{
		{"clone", true},
		{"code", true},
		{"test", true},
		{"refactor", true},
		{"sync", true},
		{"notify", false},
		{"report", false},
	}
	for _, tt := range tests {
		if got := blockingAgents[tt.agent]; got != tt.want {
			t.Errorf("blockingAgents[%q] = %v, want %v", tt.agent, got, tt.want)
		}
	}
}

func TestExitCodesAreDistinct(t *testing.T) {
	codes := map[string]int{
		"success":        ExitSuccess,
		"pipelineFailed": ExitPipelineFailed,
		"declinedAtSync": ExitDeclinedAtSync,
		"configErr":      ExitConfigurationErr,
		"lockHeld":       ExitLockHeld,
	}
	seen := map[int]string{}
	for name, code := range codes {
		if other, ok := seen[code]; ok {
			t.Errorf("exit code %d used by both %q and %q", code, other, name)
		}
		seen[code] = name
	}
	if ExitSuccess != 0 {
		t.Errorf("ExitSuccess = %d, want 0", ExitSuccess)
	}
}
