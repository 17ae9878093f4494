package config

import "fmt"

// SetProviderEnabled enables or disables a configured provider, adding an
// entry with sensible defaults if one is not yet present.
func SetProviderEnabled(cfg *UserConfig, providerID string, enabled bool) {
	for i := range cfg.Providers {
		if cfg.Providers[i].ID == providerID {
			cfg.Providers[i].Enabled = enabled
			return
		}
	}
	cfg.Providers = append(cfg.Providers, ProviderConfig{
		ID:      providerID,
		Name:    displayNameFor(providerID),
		Enabled: enabled,
		BaseURL: defaultBaseURLFor(providerID),
	})
}

func displayNameFor(providerID string) string {
	switch providerID {
	case "anthropic":
		return "Anthropic"
	case "openai":
		return "OpenAI"
	case "ollama":
		return "Ollama"
	default:
		return providerID
	}
}

func defaultBaseURLFor(providerID string) string {
	switch providerID {
	case "anthropic":
		return "https://api.anthropic.com"
	case "openai":
		return "https://api.openai.com/v1"
	case "ollama":
		return "http://localhost:11434"
	default:
		return ""
	}
}

// UpdateProviderField updates a single provider field and persists the
// user config. Field is one of "base_url", "model", "enabled".
func UpdateProviderField(dataDir, providerID, field, value string) error {
	cfg, err := LoadUserConfig(dataDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	switch field {
	case "enabled":
		SetProviderEnabled(cfg, providerID, value == "true")
	case "base_url":
		found := false
		for i := range cfg.Providers {
			if cfg.Providers[i].ID == providerID {
				cfg.Providers[i].BaseURL = value
				found = true
			}
		}
		if !found {
			return fmt.Errorf("unknown provider: %s", providerID)
		}
	case "model":
		found := false
		for i := range cfg.Providers {
			if cfg.Providers[i].ID == providerID {
				cfg.Providers[i].Model = value
				found = true
			}
		}
		if !found {
			return fmt.Errorf("unknown provider: %s", providerID)
		}
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	if err := SaveUserConfig(cfg, dataDir); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}
