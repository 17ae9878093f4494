package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// PluginConfigEntry is the user-editable configuration for one plugin:
// whether it's enabled, and the typed values declared in its manifest's
// "configuration" field (spec §4.6 concerns itself only with Permissions;
// this is the parallel non-permission configuration channel named in
// original_source/mcp/config_store.rs and carried over as a supplement).
type PluginConfigEntry struct {
	Enabled bool              `toml:"enabled"`
	Config  map[string]string `toml:"config,omitempty"`
}

type PluginsConfig struct {
	Plugins map[string]PluginConfigEntry `toml:"plugins"`
}

func LoadPluginsConfig(dataDir string) (*PluginsConfig, error) {
	path := filepath.Join(dataDir, "plugins.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &PluginsConfig{Plugins: make(map[string]PluginConfigEntry)}, nil
	}

	var cfg PluginsConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode plugins config: %w", err)
	}
	if cfg.Plugins == nil {
		cfg.Plugins = make(map[string]PluginConfigEntry)
	}
	return &cfg, nil
}

func SavePluginsConfig(dataDir string, cfg *PluginsConfig) error {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	path := filepath.Join(dataDir, "plugins.toml")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create plugins config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode plugins config: %w", err)
	}
	return nil
}

func (pc *PluginsConfig) GetPluginEnabled(pluginID string) bool {
	entry, ok := pc.Plugins[pluginID]
	return ok && entry.Enabled
}

func (pc *PluginsConfig) SetPluginEnabled(pluginID string, enabled bool) {
	if pc.Plugins == nil {
		pc.Plugins = make(map[string]PluginConfigEntry)
	}
	entry := pc.Plugins[pluginID]
	entry.Enabled = enabled
	pc.Plugins[pluginID] = entry
}

func (pc *PluginsConfig) GetPluginConfig(pluginID string) map[string]string {
	entry, ok := pc.Plugins[pluginID]
	if !ok || entry.Config == nil {
		return make(map[string]string)
	}
	return entry.Config
}

func (pc *PluginsConfig) SetPluginConfig(pluginID string, values map[string]string) {
	if pc.Plugins == nil {
		pc.Plugins = make(map[string]PluginConfigEntry)
	}
	entry := pc.Plugins[pluginID]
	entry.Config = values
	pc.Plugins[pluginID] = entry
}

func (pc *PluginsConfig) DeletePlugin(pluginID string) {
	delete(pc.Plugins, pluginID)
}
