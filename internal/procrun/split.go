// Package procrun executes configured shell commands (the primary run
// command, the test command, formatters, linters) with subprocess hygiene:
// shell-aware argument splitting, new process-group isolation, a bounded
// two-reader output drain, and a SIGTERM-then-SIGKILL timeout sequence.
package procrun

import (
	"context"
	"fmt"
	"os"

	"mvdan.cc/sh/v3/shell"
)

// SplitCommand tokenizes a command string with POSIX shell quoting rules so
// that paths containing spaces survive as a single argument. Naive
// strings.Fields-style whitespace splitting is forbidden because it would
// break a command like `python 'my script.py'` into three tokens instead
// of two.
func SplitCommand(command string) ([]string, error) {
	fields, err := shell.Fields(context.Background(), command, os.Getenv)
	if err != nil {
		return nil, fmt.Errorf("split command %q: %w", command, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	return fields, nil
}
