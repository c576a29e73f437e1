package notify

import (
	"testing"

	"github.com/commitly/commitly/internal/config"
	"github.com/commitly/commitly/internal/runctx"
)

func TestMatchesAny(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		needles []string
		wantOK  bool
		wantOn  string
	}{
		{name: "case-insensitive substring match", text: "Fixed the Login Bug today", needles: []string{"login bug"}, wantOK: true, wantOn: "login bug"},
		{name: "no match", text: "unrelated chatter", needles: []string{"login bug"}, wantOK: false},
		{name: "empty needle skipped", text: "anything", needles: []string{""}, wantOK: false},
		{name: "matches a filename needle", text: "just pushed a fix to auth.py", needles: []string{"auth.py"}, wantOK: true, wantOn: "auth.py"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := matchesAny(tt.text, tt.needles)
			if ok != tt.wantOK {
				t.Fatalf("matchesAny(%q, %v) ok = %v, want %v", tt.text, tt.needles, ok, tt.wantOK)
			}
			if ok && got != tt.wantOn {
				t.Errorf("matched needle = %q, want %q", got, tt.wantOn)
			}
		})
	}
}

func TestMatchNeedles(t *testing.T) {
	a := &Agent{Config: &config.Config{Notify: config.NotifyConfig{Keywords: []string{"hotfix"}}}}
	rc := runctx.New("run-1", "demo", "/workspace/demo")
	rc.UserCommits = []runctx.Commit{{Message: "fix login bug"}}
	rc.ChangedFiles = []string{"/hub/demo/auth/login.py"}

	needles := a.matchNeedles(rc)
	want := []string{"fix login bug", "login.py", "hotfix"}
	if len(needles) != len(want) {
		t.Fatalf("needles = %v, want %v", needles, want)
	}
	for i := range want {
		if needles[i] != want[i] {
			t.Errorf("needle %d = %q, want %q", i, needles[i], want[i])
		}
	}
}
