// Package config loads commitly.yaml (or .commitly/config.yaml): built-in
// defaults, then the values from that one file. There is no further
// override layer (no CLI-flag, home-file or environment overrides of
// individual keys). ${NAME}-style references
// inside the YAML are interpolated against the process environment before
// unmarshalling.
package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config mirrors the recognized keys of the YAML configuration file.
type Config struct {
	Git        GitConfig        `yaml:"git"`
	Execution  ExecutionConfig  `yaml:"execution"`
	Test       TestConfig       `yaml:"test"`
	Database   DatabaseConfig   `yaml:"database"`
	LLM        LLMConfig        `yaml:"llm"`
	Refactor   RefactorConfig   `yaml:"refactoring"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Notify     NotifyConfig     `yaml:"notify"`
	Report     ReportConfig     `yaml:"report"`
	Query      QueryConfig      `yaml:"query"`
}

type GitConfig struct {
	Remote string `yaml:"remote"`
}

type ExecutionConfig struct {
	Command   string   `yaml:"command"`
	Timeout   int      `yaml:"timeout"`
	PythonBin string   `yaml:"python_bin"`
	EnvFile   string   `yaml:"env_file"`
	Linters   []string `yaml:"linters"`
	ToolVersions map[string]string `yaml:"tool_versions"`
}

// QueryConfig drives the Code agent's embedded-query extraction heuristic.
type QueryConfig struct {
	// Sinks are substrings that, when found immediately before a quoted
	// string literal on the same statement, mark it as a database
	// execution call (e.g. ".execute(", ".cursor.execute(", "query(").
	Sinks   []string `yaml:"sinks"`
	Dialect string   `yaml:"dialect"`
}

type TestConfig struct {
	Command string `yaml:"command"`
	Timeout int    `yaml:"timeout"`
}

type DatabaseConfig struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	User    string `yaml:"user"`
	Password string `yaml:"password"`
	DBName  string `yaml:"dbname"`
	Dialect string `yaml:"dialect"`
}

type LLMConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
}

type RefactorConfig struct {
	Rules     string `yaml:"rules"`
	Formatter string `yaml:"formatter"`
}

type PipelineConfig struct {
	CleanupHubOnFailure bool `yaml:"cleanup_hub_on_failure"`
}

type NotifyConfig struct {
	Channel string `yaml:"channel"`
	Window  string `yaml:"window"`
	Keywords []string `yaml:"keywords"`
}

type ReportConfig struct {
	Format string `yaml:"format"`
	Dir    string `yaml:"dir"`
}

// Default returns the Config populated with built-in defaults.
func Default() *Config {
	return &Config{
		Git:       GitConfig{Remote: "origin"},
		Execution: ExecutionConfig{Timeout: 300},
		Test:      TestConfig{Timeout: 300},
		Report:    ReportConfig{Format: "md"},
	}
}

var envRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// interpolateEnv replaces ${NAME} references with os.Getenv(NAME), leaving
// unresolved names as an empty string (matching shell-style expansion of an
// unset variable rather than erroring the whole config load).
func interpolateEnv(raw []byte) []byte {
	return envRefPattern.ReplaceAllFunc(raw, func(m []byte) []byte {
		name := envRefPattern.FindSubmatch(m)[1]
		return []byte(os.Getenv(string(name)))
	})
}

// Load reads and parses the YAML config at path, applying defaults for any
// zero-valued fields the file does not set. A missing path is not an error:
// Load returns Default() so commands without a config file still run with
// sensible defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	raw = interpolateEnv(raw)
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Git.Remote == "" {
		cfg.Git.Remote = "origin"
	}
	if cfg.Execution.Timeout == 0 {
		cfg.Execution.Timeout = 300
	}
	if cfg.Execution.EnvFile == "" {
		cfg.Execution.EnvFile = ".env"
	}
	if cfg.Test.Timeout == 0 {
		cfg.Test.Timeout = 300
	}
	if cfg.Report.Format == "" {
		cfg.Report.Format = "md"
	}
	if len(cfg.Query.Sinks) == 0 {
		cfg.Query.Sinks = []string{".execute(", ".executemany(", "cursor.execute(", ".query(", "rawQuery(", "db.Exec(", "db.Query("}
	}
	if cfg.Query.Dialect == "" {
		cfg.Query.Dialect = "postgres"
	}
	if cfg.Refactor.Rules == "" {
		cfg.Refactor.Rules = "remove duplicated code by extracting common functions; " +
			"wrap risky I/O, network, and database calls in exception handlers with logging; " +
			"keep public signatures unchanged"
	}
}

// Validate checks that the required keys are set.
func (c *Config) Validate() error {
	if c.Execution.Command == "" {
		return fmt.Errorf("execution.command is required")
	}
	if c.Test.Command == "" {
		return fmt.Errorf("test.command is required")
	}
	return nil
}
