package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/commitly/commitly/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold the local state directory and a starter configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		workspace, err := workspaceRoot()
		if err != nil {
			return err
		}

		dataDir := filepath.Join(workspace, commitlyDir)
		for _, sub := range []string{"cache", "logs", "reports"} {
			if err := os.MkdirAll(filepath.Join(dataDir, sub), 0o755); err != nil {
				return fmt.Errorf("create %s: %w", sub, err)
			}
		}

		cfg := config.Default()
		cfg.Execution.PythonBin, cfg.Execution.Command = detectInterpreterAndEntrypoint(workspace)
		if cfg.Execution.Command != "" {
			cfg.Test.Command = detectTestCommand(workspace)
		}

		configPath := filepath.Join(workspace, "commitly.yaml")
		if _, err := os.Stat(configPath); err == nil {
			fmt.Println("commitly.yaml already exists; leaving it untouched")
		} else {
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshal default config: %w", err)
			}
			if err := os.WriteFile(configPath, data, 0o644); err != nil {
				return fmt.Errorf("write commitly.yaml: %w", err)
			}
			fmt.Println("wrote", configPath)
		}

		fmt.Println("initialized", dataDir)
		return nil
	},
}

// detectInterpreterAndEntrypoint makes a best-effort guess at the
// project's primary run command from common entrypoint filenames.
func detectInterpreterAndEntrypoint(workspace string) (interpreter, command string) {
	if _, err := os.Stat(filepath.Join(workspace, "main.py")); err == nil {
		return "python3", "python3 main.py"
	}
	if _, err := os.Stat(filepath.Join(workspace, "app.py")); err == nil {
		return "python3", "python3 app.py"
	}
	if _, err := os.Stat(filepath.Join(workspace, "go.mod")); err == nil {
		return "", "go run ."
	}
	if _, err := os.Stat(filepath.Join(workspace, "package.json")); err == nil {
		return "", "node index.js"
	}
	return "", ""
}

func detectTestCommand(workspace string) string {
	if _, err := os.Stat(filepath.Join(workspace, "pytest.ini")); err == nil {
		return "pytest -q"
	}
	if _, err := os.Stat(filepath.Join(workspace, "go.mod")); err == nil {
		return "go test ./..."
	}
	if _, err := os.Stat(filepath.Join(workspace, "package.json")); err == nil {
		return "npm test"
	}
	return "pytest -q"
}
