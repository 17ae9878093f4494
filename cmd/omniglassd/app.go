// Package main wires every internal package into the omniglassd daemon:
// a cobra CLI (`serve`, `plugin list/approve/deny`) fronting the NDJSON
// host-command loop the UI collaborator talks to over stdin/stdout.
//
// Grounded on hkdb-otui/main.go's construction order (config → debug log
// → temp dir → storage → single-instance lock → UI), adapted since this
// program has no UI loop of its own: "UI" here means the host-command
// loop, and "storage" means internal/audit rather than the teacher's
// session/chat storage.
package main

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/omni-glass/omniglass/internal/audit"
	"github.com/omni-glass/omniglass/internal/config"
	"github.com/omni-glass/omniglass/internal/dispatch"
	"github.com/omni-glass/omniglass/internal/llmtransport"
	"github.com/omni-glass/omniglass/internal/logging"
	"github.com/omni-glass/omniglass/internal/mcpclient"
	"github.com/omni-glass/omniglass/internal/pipeline"
	"github.com/omni-glass/omniglass/internal/plugin"
	"github.com/omni-glass/omniglass/internal/registry"
)

// app bundles every long-lived collaborator the daemon wires together.
// build constructs one from the fully loaded config; nothing here talks
// to stdin/stdout — that's hostLoop's job.
type app struct {
	cfg          *config.Config
	logger       *zap.Logger
	registry     *registry.Registry
	supervisor   *mcpclient.Supervisor
	orchestrator *pipeline.Orchestrator
	dispatcher   *dispatch.Dispatcher
	auditStore   *audit.Store
	approvals    plugin.ApprovalStore
	manifests    []plugin.Manifest
}

func buildApp(debug bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(logging.Options{DataDir: cfg.DataDir(), Debug: debug})
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	if err := config.CleanupTempDir(); err != nil {
		logger.Warn("failed to clean up stale temp directory", zap.Error(err))
	}
	if err := config.CreateTempDir(); err != nil {
		return nil, fmt.Errorf("creating secure temp directory: %w", err)
	}

	auditStore, err := audit.Open(cfg.DataDir())
	if err != nil {
		return nil, fmt.Errorf("opening audit ledger: %w", err)
	}

	reg := registry.New(nil)
	registerBuiltinTools(reg)

	supervisor := mcpclient.New(logger)
	reg.SetPluginCaller(supervisor)

	manifests, loadErrs := plugin.DiscoverPlugins(config.GetPluginsDir())
	for dirName, loadErr := range loadErrs {
		logger.Warn("skipping plugin with invalid manifest", zap.String("dir", dirName), zap.Error(loadErr))
	}
	approvals := plugin.LoadApprovalStore(config.GetApprovalRecordPath())

	if cfg.PluginsEnabled {
		spawnApprovedPlugins(supervisor, reg, approvals, manifests, logger)
	}

	providerID := cfg.DefaultProvider
	pc := cfg.ProviderByID(providerID)
	if pc == nil {
		return nil, fmt.Errorf("default provider %q is not configured", providerID)
	}
	transport, err := llmtransport.New(providerID, *pc, 1024, 4096)
	if err != nil {
		return nil, fmt.Errorf("building LLM transport: %w", err)
	}

	dispatcher := dispatch.New(filepath.Join(config.GetHomeDir(), "Desktop"), logger)
	orchestrator := pipeline.New(transport, reg, nil, dispatcher, auditStore, logger)

	return &app{
		cfg:          cfg,
		logger:       logger,
		registry:     reg,
		supervisor:   supervisor,
		orchestrator: orchestrator,
		dispatcher:   dispatcher,
		auditStore:   auditStore,
		approvals:    approvals,
		manifests:    manifests,
	}, nil
}

// registerBuiltinTools wires the host-implemented actions available
// without a plugin (spec §4.8's "builtin" PluginID): copying text to the
// clipboard, and a placeholder for web search that hands the extracted
// text back untouched since opening a browser tab is the UI
// collaborator's job, not this process's.
func registerBuiltinTools(reg *registry.Registry) {
	reg.RegisterBuiltin("copy_text", "Copy the extracted text to the clipboard", nil,
		func(ctx context.Context, args map[string]any) (string, error) {
			text, _ := args["text"].(string)
			if err := dispatch.CopyToClipboard(text); err != nil {
				return "", fmt.Errorf("copying to clipboard: %w", err)
			}
			return text, nil
		})

	reg.RegisterBuiltin("search_web", "Search the web for the extracted text", nil,
		func(ctx context.Context, args map[string]any) (string, error) {
			text, _ := args["text"].(string)
			return text, nil
		})
}

// rebuildTransport re-resolves the active provider's LLM Transport —
// called after `set_active_provider` or `save_api_key` changes which
// provider or credential the daemon should use next.
func (a *app) rebuildTransport() error {
	pc := a.cfg.ProviderByID(a.cfg.DefaultProvider)
	if pc == nil {
		return fmt.Errorf("default provider %q is not configured", a.cfg.DefaultProvider)
	}
	transport, err := llmtransport.New(a.cfg.DefaultProvider, *pc, 1024, 4096)
	if err != nil {
		return fmt.Errorf("building LLM transport: %w", err)
	}
	a.orchestrator.SetTransport(transport)
	return nil
}

func (a *app) close() {
	if a.cfg != nil && a.cfg.PluginsEnabled {
		a.supervisor.StopAll()
	}
	if a.auditStore != nil {
		if err := a.auditStore.Close(); err != nil {
			a.logger.Warn("failed to close audit ledger", zap.Error(err))
		}
	}
	if err := config.CleanupTempDir(); err != nil {
		a.logger.Warn("failed to clean up temp directory on exit", zap.Error(err))
	}
	_ = a.logger.Sync()
}
