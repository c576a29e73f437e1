package code

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadEnvFile(t *testing.T) {
	t.Run("missing file returns empty map, no error", func(t *testing.T) {
		out, err := loadEnvFile(filepath.Join(t.TempDir(), "nope.env"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out) != 0 {
			t.Errorf("expected empty map, got %v", out)
		}
	})

	t.Run("parses key=value pairs and skips comments", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, ".env")
		content := "# comment\nAPI_KEY=abc123\nQUOTED=\"hello world\"\n\nBARE='single'\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		out, err := loadEnvFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := map[string]string{"API_KEY": "abc123", "QUOTED": "hello world", "BARE": "single"}
		for k, v := range want {
			if out[k] != v {
				t.Errorf("out[%q] = %q, want %q", k, out[k], v)
			}
		}
	})
}

func TestBuildEnv(t *testing.T) {
	t.Run("prefixes PATH with interpreter dir", func(t *testing.T) {
		env := buildEnv("/opt/python39/bin/python3", nil)
		found := false
		for _, kv := range env {
			if strings.HasPrefix(kv, "PATH=/opt/python39/bin") {
				found = true
			}
		}
		if !found {
			t.Errorf("expected a PATH entry prefixed with interpreter dir, got %v", env)
		}
	})

	t.Run("appends env file pairs", func(t *testing.T) {
		env := buildEnv("", map[string]string{"FOO": "bar"})
		found := false
		for _, kv := range env {
			if kv == "FOO=bar" {
				found = true
			}
		}
		if !found {
			t.Errorf("expected FOO=bar in env, got %v", env)
		}
	})
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{name: "under limit unchanged", in: "short", n: 10, want: "short"},
		{name: "exact limit unchanged", in: "12345", n: 5, want: "12345"},
		{name: "over limit truncated with suffix", in: "123456789", n: 5, want: "12345...(truncated)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.in, tt.n); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
		})
	}
}
