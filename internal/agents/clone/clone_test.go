package clone

import (
	"reflect"
	"testing"
)

func TestFilesFromStatus(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  []string
	}{
		{name: "empty input", lines: nil, want: []string{}},
		{name: "single modified file", lines: []string{" M main.py"}, want: []string{"main.py"}},
		{name: "added and deleted", lines: []string{"A  new.py", "D  old.py"}, want: []string{"new.py", "old.py"}},
		{name: "short line ignored", lines: []string{"AB"}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filesFromStatus(tt.lines)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("filesFromStatus(%v) = %v, want %v", tt.lines, got, tt.want)
			}
		})
	}
}

func TestSetDifference(t *testing.T) {
	t.Run("no unexpected files", func(t *testing.T) {
		diff := setDifference([]string{"a.py", "b.py"}, []string{"a.py", "b.py", "c.py"})
		if len(diff) != 0 {
			t.Errorf("expected no difference, got %v", diff)
		}
	})

	t.Run("flags files present but not expected", func(t *testing.T) {
		diff := setDifference([]string{"a.py", "rogue.py"}, []string{"a.py"})
		if !reflect.DeepEqual(diff, []string{"rogue.py"}) {
			t.Errorf("got %v, want [rogue.py]", diff)
		}
	})

	t.Run("result is sorted", func(t *testing.T) {
		diff := setDifference([]string{"z.py", "a.py"}, nil)
		if !reflect.DeepEqual(diff, []string{"a.py", "z.py"}) {
			t.Errorf("got %v, want sorted [a.py z.py]", diff)
		}
	})
}
