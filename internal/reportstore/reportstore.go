// Package reportstore appends one JSON line per completed pipeline run to
// .commitly/cache/run_history.jsonl, and reads them back filtered by date
// range. It is the durable record the Report agent and the `report` CLI
// subcommand both read from, since cache/run_context.json only ever holds
// the most recent run.
package reportstore

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/commitly/commitly/internal/collab"
)

func path(cacheDir string) string {
	return filepath.Join(cacheDir, "run_history.jsonl")
}

// Append writes one ReportRun as a JSON line.
func Append(cacheDir string, run collab.ReportRun) error {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	f, err := os.OpenFile(path(cacheDir), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open run history: %w", err)
	}
	defer f.Close()
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run history entry: %w", err)
	}
	_, err = f.Write(append(data, '\n'))
	return err
}

// Load reads every recorded run whose StartedAt falls in [from, to].
func Load(cacheDir string, from, to time.Time) ([]collab.ReportRun, error) {
	f, err := os.Open(path(cacheDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open run history: %w", err)
	}
	defer f.Close()

	var runs []collab.ReportRun
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4<<20)
	for scanner.Scan() {
		var run collab.ReportRun
		if err := json.Unmarshal(scanner.Bytes(), &run); err != nil {
			continue
		}
		if (run.StartedAt.Equal(from) || run.StartedAt.After(from)) && (run.StartedAt.Equal(to) || run.StartedAt.Before(to)) {
			runs = append(runs, run)
		}
	}
	return runs, scanner.Err()
}
