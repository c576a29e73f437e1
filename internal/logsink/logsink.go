// Package logsink opens the per-agent and per-git log files under
// .commitly/logs/: a directory-per-concern layout plus a simple append-only
// writer, with one timestamped log file per agent run.
package logsink

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Sink is an append-only log file handle with guaranteed Close on every
// exit path.
type Sink struct {
	Path string
	f    *os.File
}

// Open creates (or truncates) logsDir/<name>/<ISO-timestamp>.log and
// returns a Sink ready for Write.
func Open(logsDir, name string, now time.Time) (*Sink, error) {
	dir := filepath.Join(logsDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, now.UTC().Format("20060102T150405.000Z")+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return &Sink{Path: path, f: f}, nil
}

// Write implements io.Writer so Sink can be passed directly to procrun.Options.Sink.
func (s *Sink) Write(p []byte) (int, error) {
	return s.f.Write(p)
}

// Printf writes a formatted, timestamped line.
func (s *Sink) Printf(format string, args ...any) {
	line := fmt.Sprintf("[%s] %s\n", time.Now().UTC().Format(time.RFC3339), fmt.Sprintf(format, args...))
	_, _ = io.WriteString(s.f, line)
}

// Close releases the underlying file handle. Safe to call on every exit
// path; a nil Sink is a no-op so callers don't need a nil check.
func (s *Sink) Close() error {
	if s == nil || s.f == nil {
		return nil
	}
	return s.f.Close()
}
