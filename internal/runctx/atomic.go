package runctx

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store persists a Context to cache/run_context.json after every agent
// return, using a write-temp-then-rename sequence so a crash mid-write
// never corrupts the file.
type Store struct {
	// CacheDir is ".commitly/cache" under the user's workspace.
	CacheDir string
}

func NewStore(cacheDir string) *Store {
	return &Store{CacheDir: cacheDir}
}

func (s *Store) path() string {
	return filepath.Join(s.CacheDir, "run_context.json")
}

// Save atomically writes ctx to cache/run_context.json.
func (s *Store) Save(ctx *Context) error {
	if err := os.MkdirAll(s.CacheDir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	data, err := json.MarshalIndent(ctx, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run context: %w", err)
	}
	return writeAtomic(s.path(), data)
}

// Load reads the last-persisted Context, if any.
func (s *Store) Load() (*Context, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		return nil, err
	}
	var ctx Context
	if err := json.Unmarshal(data, &ctx); err != nil {
		return nil, fmt.Errorf("unmarshal run context: %w", err)
	}
	return &ctx, nil
}

// SaveAgentCache writes an agent's structured output to
// cache/<agent>.json, matching the persisted-state layout 
func (s *Store) SaveAgentCache(agent string, outcome *AgentOutcome) error {
	if err := os.MkdirAll(s.CacheDir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	data, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal agent cache: %w", err)
	}
	return writeAtomic(filepath.Join(s.CacheDir, agent+".json"), data)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
