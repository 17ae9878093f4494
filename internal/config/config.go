// Package config loads Omni-Glass's two-tier TOML configuration: a small
// settings.toml under the OS config directory pointing at a data
// directory, and a richer config.toml inside that data directory holding
// provider selection and plugin enablement.
package config

import (
	"fmt"
	"os"
)

// SystemConfig is the top-level settings.toml document.
type SystemConfig struct {
	DataDirectory string `toml:"data_directory"`
}

// ProviderConfig describes one configured LLM Transport provider (§4.4).
type ProviderConfig struct {
	ID      string `toml:"id"`
	Name    string `toml:"name"`
	Enabled bool   `toml:"enabled"`
	BaseURL string `toml:"base_url,omitempty"`
	Model   string `toml:"model,omitempty"`
}

// UserConfig is the richer config.toml document inside the data directory.
type UserConfig struct {
	DefaultProvider string           `toml:"default_provider"`
	Providers       []ProviderConfig `toml:"providers"`
	PluginsEnabled  bool             `toml:"plugins_enabled"`
}

// Config is the fully resolved, in-memory configuration used by the rest
// of the program.
type Config struct {
	DataDirectory   string
	DefaultProvider string
	Providers       []ProviderConfig
	PluginsEnabled  bool
}

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

func (c *Config) applyEnvOverrides() {
	if dataDir := os.Getenv("OMNIGLASS_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
	if provider := os.Getenv("OMNIGLASS_DEFAULT_PROVIDER"); provider != "" {
		c.DefaultProvider = provider
	}
}

// HasAllEnvVars reports whether the full bootstrap override set is
// present, mirroring the teacher's all-or-nothing env var convention.
func HasAllEnvVars() bool {
	return os.Getenv("OMNIGLASS_DATA_DIR") != "" && os.Getenv("OMNIGLASS_DEFAULT_PROVIDER") != ""
}

func HasAnyEnvVar() bool {
	return os.Getenv("OMNIGLASS_DATA_DIR") != "" || os.Getenv("OMNIGLASS_DEFAULT_PROVIDER") != ""
}

func GetMissingEnvVar() string {
	if os.Getenv("OMNIGLASS_DATA_DIR") == "" {
		return "OMNIGLASS_DATA_DIR"
	}
	if os.Getenv("OMNIGLASS_DEFAULT_PROVIDER") == "" {
		return "OMNIGLASS_DEFAULT_PROVIDER"
	}
	return ""
}

// Load resolves Config from settings.toml + config.toml, falling back to
// defaults and environment overrides when no settings file exists yet.
func Load() (*Config, error) {
	cfg := &Config{
		DataDirectory:   GetDefaultDataDir(),
		DefaultProvider: "anthropic",
	}

	settingsPath := GetSettingsFilePath()
	if FileExists(settingsPath) {
		systemCfg, err := LoadSystemConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load system config: %w", err)
		}
		cfg.DataDirectory = systemCfg.DataDirectory
	} else if HasAllEnvVars() {
		cfg.applyEnvOverrides()
	}

	dataDir := cfg.DataDir()
	userCfg, err := LoadUserConfig(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}
	cfg.DefaultProvider = userCfg.DefaultProvider
	cfg.Providers = userCfg.Providers
	cfg.PluginsEnabled = userCfg.PluginsEnabled

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return nil, fmt.Errorf("failed to set data directory permissions: %w", err)
	}

	return cfg, nil
}

// ProviderByID finds a configured provider by id, or nil if absent.
func (c *Config) ProviderByID(id string) *ProviderConfig {
	for i := range c.Providers {
		if c.Providers[i].ID == id {
			return &c.Providers[i]
		}
	}
	return nil
}
