package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/omni-glass/omniglass/internal/mcpclient"
	"github.com/omni-glass/omniglass/internal/plugin"
	"github.com/omni-glass/omniglass/internal/registry"
)

// spawnApprovedPlugins starts every manifest already approved in store,
// registering each plugin's tools under the registry as they come up.
// A plugin that fails to spawn is logged and skipped, per spec §4.7's
// failure-isolation requirement — one bad plugin never blocks the rest.
func spawnApprovedPlugins(sup *mcpclient.Supervisor, reg *registry.Registry, store plugin.ApprovalStore, manifests []plugin.Manifest, logger *zap.Logger) {
	for _, m := range manifests {
		if plugin.CheckApproval(store, m) != plugin.StatusApproved {
			continue
		}
		tools, err := sup.Spawn(context.Background(), m, m.Dir)
		if err != nil {
			logger.Warn("failed to spawn approved plugin", zap.String("plugin_id", m.ID), zap.Error(err))
			continue
		}
		reg.RegisterPluginTools(m.ID, tools)
	}
}
