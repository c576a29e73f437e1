package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/commitly/commitly/internal/agent"
	"github.com/commitly/commitly/internal/collab"
	"github.com/commitly/commitly/internal/config"
	"github.com/commitly/commitly/internal/gitgw"
	"github.com/commitly/commitly/internal/hub"
	"github.com/commitly/commitly/internal/lock"
	"github.com/commitly/commitly/internal/pipeline"
	"github.com/commitly/commitly/internal/rollback"
	"github.com/commitly/commitly/internal/runctx"
)

const commitlyDir = ".commitly"

func workspaceRoot() (string, error) {
	return os.Getwd()
}

func resolveConfigPath(workspace string) string {
	if cfgFile != "" {
		return cfgFile
	}
	override := filepath.Join(workspace, commitlyDir, "config.yaml")
	if _, err := os.Stat(override); err == nil {
		return override
	}
	return filepath.Join(workspace, "commitly.yaml")
}

func loadConfig(workspace string) (*config.Config, error) {
	return config.Load(resolveConfigPath(workspace))
}

// buildOrchestrator assembles the Orchestrator from real infrastructure:
// the Git Gateway, Hub Manager, Run Context Store, and the lightweight
// always-failing collaborator defaults.
func buildOrchestrator(cfg *config.Config, workspace string) (*pipeline.Orchestrator, error) {
	dataDir := filepath.Join(workspace, commitlyDir)
	cacheDir := filepath.Join(dataDir, "cache")
	logsDir := filepath.Join(dataDir, "logs")

	git := &gitgw.Gateway{Timeout: gitgw.DefaultTimeout}
	hubMgr := hub.NewManager(git)
	store := runctx.NewStore(cacheDir)
	repoLock := lock.New(dataDir)
	base := agent.New(logsDir, store)
	rollbackEngine := rollback.New(hubMgr, store)

	var llm collab.LLMHandle = collab.UnavailableLLM{}
	var notifier collab.Notifier = collab.UnconfiguredNotifier{}
	var renderer collab.ReportRenderer = &collab.MarkdownRenderer{}

	var db *pgxpool.Pool
	if cfg.Database.Host != "" {
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
			cfg.Database.User, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)
		pool, err := pgxpool.New(context.Background(), dsn)
		if err == nil {
			db = pool
		}
	}

	approval := collab.NewTerminalApproval()

	return &pipeline.Orchestrator{
		Config:   cfg,
		Git:      git,
		HubMgr:   hubMgr,
		Store:    store,
		Base:     base,
		Lock:     repoLock,
		Rollback: rollbackEngine,
		Approval: approval,
		LLM:      llm,
		Notifier: notifier,
		Renderer: renderer,
		DB:       db,
		CacheDir: cacheDir,
		LogsDir:  logsDir,
	}, nil
}
