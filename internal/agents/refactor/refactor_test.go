package refactor

import "testing"

func TestFilepathDir(t *testing.T) {
	tests := []struct{ in, want string }{
		{"/hub/repo/pkg/file.go", "/hub/repo/pkg"},
		{"file.go", "."},
		{"/file.go", ""},
	}
	for _, tt := range tests {
		if got := filepathDir(tt.in); got != tt.want {
			t.Errorf("filepathDir(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
