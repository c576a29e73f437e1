package logsink

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestOpenCreatesFileUnderNamedSubdir(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 5, 14, 30, 0, 0, time.UTC)

	sink, err := Open(dir, "clone", now)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer sink.Close()

	if !strings.Contains(sink.Path, "clone") {
		t.Errorf("expected path to contain agent name, got %q", sink.Path)
	}
	if !strings.HasSuffix(sink.Path, ".log") {
		t.Errorf("expected a .log file, got %q", sink.Path)
	}
	if _, err := os.Stat(sink.Path); err != nil {
		t.Errorf("expected log file to exist on disk: %v", err)
	}
}

func TestWriteAndPrintfAppendToFile(t *testing.T) {
	dir := t.TempDir()
	sink, err := Open(dir, "code", time.Now())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if _, err := sink.Write([]byte("raw line\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	sink.Printf("formatted %s", "line")
	sink.Close()

	data, err := os.ReadFile(sink.Path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "raw line") {
		t.Errorf("expected raw line in content, got %q", content)
	}
	if !strings.Contains(content, "formatted line") {
		t.Errorf("expected formatted line in content, got %q", content)
	}
}

func TestCloseOnNilSinkIsNoOp(t *testing.T) {
	var sink *Sink
	if err := sink.Close(); err != nil {
		t.Errorf("expected nil Sink Close to be a no-op, got: %v", err)
	}
}
