package config

func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		DataDirectory: "~/.local/share/omni-glass",
	}
}

func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		DefaultProvider: "anthropic",
		Providers: []ProviderConfig{
			{ID: "anthropic", Name: "Anthropic", Enabled: true, BaseURL: "https://api.anthropic.com", Model: "claude-haiku-4-5-20251001"},
			{ID: "ollama", Name: "Ollama", Enabled: false, BaseURL: "http://localhost:11434", Model: "llama3.1:latest"},
		},
		PluginsEnabled: false,
	}
}

func GenerateSystemConfigTemplate() string {
	return `# Omni-Glass system configuration
# Location: ~/.config/omni-glass/settings.toml
# This file uses TOML format: https://toml.io

# Directory where the audit ledger and user config are stored
data_directory = "~/.local/share/omni-glass"
`
}

func GenerateUserConfigTemplate() string {
	return `# Omni-Glass user configuration
# Location: <data_directory>/config.toml
# This file uses TOML format: https://toml.io

# Provider consulted for CLASSIFY/EXECUTE when none is specified per-request
default_provider = "anthropic"

[[providers]]
id = "anthropic"
name = "Anthropic"
enabled = true
base_url = "https://api.anthropic.com"
model = "claude-haiku-4-5-20251001"

[[providers]]
id = "ollama"
name = "Ollama"
enabled = false
base_url = "http://localhost:11434"
model = "llama3.1:latest"

# Plugin system (disabled by default) - enables MCP plugins for extended
# tool capabilities alongside the built-in action handlers.
plugins_enabled = false
`
}
